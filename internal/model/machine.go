package model

import (
	"encoding/json"
	"fmt"
)

// MachineStatus is the closed set of states a washing machine can be in.
type MachineStatus string

const (
	StatusAvailable  MachineStatus = "available"
	StatusInUse      MachineStatus = "in_use"
	StatusOutOfOrder MachineStatus = "out_of_order"
)

// ParseMachineStatus validates a raw status string.
func ParseMachineStatus(raw string) (MachineStatus, error) {
	switch s := MachineStatus(raw); s {
	case StatusAvailable, StatusInUse, StatusOutOfOrder:
		return s, nil
	}
	return "", fmt.Errorf("unknown machine status %q", raw)
}

// UnmarshalJSON rejects statuses outside the known set.
func (s *MachineStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMachineStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Machine is the backend's view of a single washing machine.
type Machine struct {
	ID            ID            `json:"id"`
	MachineNumber int           `json:"machine_number"`
	Floor         int           `json:"floor"`
	Location      string        `json:"location"`
	Status        MachineStatus `json:"status"`
	CurrentUser   *string       `json:"current_user,omitempty"`
	TimeRemaining *int          `json:"time_remaining,omitempty"` // minutes
}

// Bookable reports whether a booking may be opened for the machine.
func (m Machine) Bookable() bool {
	return m.Status == StatusAvailable
}

// Stats is the pre-aggregated usage summary served by the backend.
type Stats struct {
	TotalMachines      int     `json:"total_machines"`
	AvailableMachines  int     `json:"available_machines"`
	InUseMachines      int     `json:"in_use_machines"`
	OutOfOrderMachines int     `json:"out_of_order_machines"`
	UsageRate          float64 `json:"usage_rate"`
}
