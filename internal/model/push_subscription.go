package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Machines []SubscribedMachine `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// SubscribedMachine links a subscription to a backend machine it wants
// "machine available" alerts for.
type SubscribedMachine struct {
	ID        int64  `gorm:"primaryKey"`
	Endpoint  string `gorm:"index;not null"`
	MachineID string `gorm:"index;size:64;not null"`
}

// ActionKind names a user-triggered mutation forwarded to the backend.
type ActionKind string

const (
	ActionBook            ActionKind = "book"
	ActionCompleteBooking ActionKind = "complete_booking"
	ActionSetStatus       ActionKind = "set_status"
)

// ActionRecord is the audit trail entry for one forwarded action.
type ActionRecord struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	Kind      ActionKind `gorm:"size:32;not null;index" json:"kind"`
	TargetID  string     `gorm:"size:64;not null" json:"target_id"`
	Succeeded bool       `gorm:"not null" json:"succeeded"`
	Detail    string     `gorm:"size:512" json:"detail"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
}
