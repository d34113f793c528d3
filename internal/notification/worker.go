package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"laundry-dashboard/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the part of the repository the workers need.
type SubscriptionStore interface {
	SubscriptionsForMachine(ctx context.Context, machineID string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Job asks the pool to alert everyone watching a machine that it became available.
type Job struct {
	MachineID     model.ID
	MachineNumber int
	Floor         int
}

// Message is the notification text for the job.
func (j Job) Message() string {
	return fmt.Sprintf("Machine #%d on floor %d is now available", j.MachineNumber, j.Floor)
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	subs    SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs SubscriptionStore, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// SetSender replaces the sender used for new notifications. Call it before Start.
func (wp *WorkerPool) SetSender(sender NotificationSender) {
	wp.sender = sender
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			log.Printf("Worker %d processing machine %s", id, job.MachineID)
			wp.sendNotificationsForMachine(ctx, job)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job, blocking while the queue is full. It gives up when
// ctx is done and reports whether the job was queued.
func (wp *WorkerPool) Dispatch(ctx context.Context, job Job) bool {
	select {
	case wp.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

func (wp *WorkerPool) sendNotificationsForMachine(ctx context.Context, job Job) {
	subscriptions, err := wp.subs.SubscriptionsForMachine(ctx, job.MachineID.String())
	if err != nil {
		log.Printf("Error fetching subscriptions for machine %s: %v", job.MachineID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for machine %s", len(subscriptions), job.MachineID)
	payload := []byte(job.Message())
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
