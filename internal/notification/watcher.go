package notification

import (
	"context"
	"log"

	"laundry-dashboard/internal/model"
	"laundry-dashboard/internal/store"
)

// Dispatcher queues alert jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) bool
}

// Watch follows applied snapshots and dispatches a job for every machine that
// turned available. It returns when ctx is done.
func Watch(ctx context.Context, st *store.Store, d Dispatcher) {
	updates, cancel := st.Subscribe()
	defer cancel()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return
			}
			for _, job := range BecameAvailable(u.Previous, u.Current) {
				if !d.Dispatch(ctx, job) {
					return
				}
			}
		case <-ctx.Done():
			log.Println("Availability watcher shutting down")
			return
		}
	}
}

// BecameAvailable lists machines that are available in current but were known
// with another status in previous. Machines absent from previous are skipped,
// so the first snapshot never alerts.
func BecameAvailable(previous, current model.Snapshot) []Job {
	before := make(map[model.ID]model.MachineStatus, len(previous.Machines))
	for _, m := range previous.Machines {
		before[m.ID] = m.Status
	}

	var jobs []Job
	for _, m := range current.Machines {
		old, known := before[m.ID]
		if !known || old == model.StatusAvailable || m.Status != model.StatusAvailable {
			continue
		}
		jobs = append(jobs, Job{MachineID: m.ID, MachineNumber: m.MachineNumber, Floor: m.Floor})
	}
	return jobs
}
