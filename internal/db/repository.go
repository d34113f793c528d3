package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"laundry-dashboard/internal/model"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// Repository defines the persistence operations the dashboard needs.
type Repository interface {
	RecordAction(ctx context.Context, rec model.ActionRecord) error
	ListActions(ctx context.Context, limit int) ([]model.ActionRecord, error)

	SaveSubscription(ctx context.Context, sub model.PushSubscription, machineIDs []string) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForMachine(ctx context.Context, machineID string) ([]model.PushSubscription, error)
}

// gormRepository implements Repository using GORM.
type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM-backed repository.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// RecordAction appends one entry to the action audit log.
func (r *gormRepository) RecordAction(ctx context.Context, rec model.ActionRecord) error {
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to record %s action: %w", rec.Kind, err)
	}
	return nil
}

// ListActions returns the newest audit entries first.
func (r *gormRepository) ListActions(ctx context.Context, limit int) ([]model.ActionRecord, error) {
	var records []model.ActionRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	return records, nil
}

// SaveSubscription creates or replaces a subscription and the set of machines
// it watches.
func (r *gormRepository) SaveSubscription(ctx context.Context, sub model.PushSubscription, machineIDs []string) error {
	sub.Machines = nil
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.SubscribedMachine{}).Error; err != nil {
			return fmt.Errorf("failed to clear subscribed machines: %w", err)
		}

		if len(machineIDs) == 0 {
			return nil
		}
		seen := make(map[string]struct{}, len(machineIDs))
		rows := make([]model.SubscribedMachine, 0, len(machineIDs))
		for _, id := range machineIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			rows = append(rows, model.SubscribedMachine{Endpoint: sub.Endpoint, MachineID: id})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save subscribed machines: %w", err)
		}
		return nil
	})
}

// GetSubscription loads a subscription with its machines.
func (r *gormRepository) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := r.db.WithContext(ctx).Preload("Machines").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

// DeleteSubscription removes a subscription and its machine links.
func (r *gormRepository) DeleteSubscription(ctx context.Context, endpoint string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.SubscribedMachine{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscribed machines: %w", err)
		}
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.PushSubscription{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// SubscriptionsForMachine returns every subscription watching machineID.
func (r *gormRepository) SubscriptionsForMachine(ctx context.Context, machineID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := r.db.WithContext(ctx).
		Joins("JOIN subscribed_machines sm ON sm.endpoint = push_subscriptions.endpoint").
		Where("sm.machine_id = ?", machineID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for machine %s: %w", machineID, err)
	}
	return subs, nil
}
