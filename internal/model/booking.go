package model

import "time"

// Booking is a reservation of one machine by one student.
type Booking struct {
	ID          ID         `json:"id"`
	MachineID   ID         `json:"machine_id"`
	StudentName string     `json:"student_name"`
	StudentRoom string     `json:"student_room"`
	Duration    int        `json:"duration"` // minutes
	StartTime   *time.Time `json:"start_time,omitempty"`
	Status      string     `json:"status,omitempty"`
}

// BookingRequest is the body of POST /api/bookings.
type BookingRequest struct {
	MachineID   ID     `json:"machine_id"`
	StudentName string `json:"student_name"`
	StudentRoom string `json:"student_room"`
	Duration    int    `json:"duration"`
}

// Snapshot is the machines, stats and active bookings fetched in one refresh cycle.
type Snapshot struct {
	Machines []Machine `json:"machines"`
	Stats    Stats     `json:"stats"`
	Bookings []Booking `json:"bookings"`
}
