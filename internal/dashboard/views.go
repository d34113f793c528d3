package dashboard

import (
	"log"
	"slices"
	"strconv"

	"laundry-dashboard/internal/model"
	"laundry-dashboard/internal/parse"
)

// FilterMachines returns the machines on the selected floor, in snapshot
// order. The input slice is never modified.
func FilterMachines(machines []model.Machine, sel parse.FloorSelection) []model.Machine {
	if sel.All {
		return slices.Clone(machines)
	}
	out := make([]model.Machine, 0, len(machines))
	for _, m := range machines {
		if sel.Matches(m.Floor) {
			out = append(out, m)
		}
	}
	return out
}

// Floors returns the distinct floors present in machines, ascending.
func Floors(machines []model.Machine) []int {
	floors := make([]int, 0, len(machines))
	for _, m := range machines {
		floors = append(floors, m.Floor)
	}
	slices.Sort(floors)
	return slices.Compact(floors)
}

// StatsCard is one tile of the statistics row.
type StatsCard struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// StatsCards renders the backend's stats verbatim; nothing is recomputed.
func StatsCards(s model.Stats) []StatsCard {
	return []StatsCard{
		{Key: "total", Title: "All machines", Value: strconv.Itoa(s.TotalMachines)},
		{Key: "available", Title: "Available", Value: strconv.Itoa(s.AvailableMachines)},
		{Key: "in_use", Title: "In use", Value: strconv.Itoa(s.InUseMachines)},
		{Key: "usage_rate", Title: "Usage rate", Value: strconv.FormatFloat(s.UsageRate, 'f', -1, 64) + "%"},
	}
}

// MachineCard is the per-machine tile, including which action it offers.
type MachineCard struct {
	ID            model.ID            `json:"id"`
	MachineNumber int                 `json:"machine_number"`
	Floor         int                 `json:"floor"`
	Location      string              `json:"location"`
	Status        model.MachineStatus `json:"status"`
	StatusLabel   string              `json:"status_label"`
	CurrentUser   string              `json:"current_user,omitempty"`
	TimeRemaining *int                `json:"time_remaining,omitempty"`
	CanBook       bool                `json:"can_book"`
	Notice        string              `json:"notice,omitempty"`
}

// NewMachineCard builds the card for m.
func NewMachineCard(m model.Machine) MachineCard {
	card := MachineCard{
		ID:            m.ID,
		MachineNumber: m.MachineNumber,
		Floor:         m.Floor,
		Location:      m.Location,
		Status:        m.Status,
	}

	switch m.Status {
	case model.StatusAvailable:
		card.StatusLabel = "Available"
		card.CanBook = true
	case model.StatusInUse:
		card.StatusLabel = "In use"
		// user and time only mean something while in use
		if m.CurrentUser != nil && *m.CurrentUser != "" {
			card.CurrentUser = *m.CurrentUser
			if m.TimeRemaining != nil && *m.TimeRemaining > 0 {
				card.TimeRemaining = m.TimeRemaining
			}
		}
	case model.StatusOutOfOrder:
		card.StatusLabel = "Out of order"
		card.Notice = "Machine out of order - please contact staff"
	default:
		log.Printf("Machine %s has unknown status %q; offering no actions", m.ID, m.Status)
		card.StatusLabel = string(m.Status)
	}
	return card
}

// AdminMachineRow is one machine in the admin panel.
type AdminMachineRow struct {
	ID            model.ID            `json:"id"`
	MachineNumber int                 `json:"machine_number"`
	Floor         int                 `json:"floor"`
	Location      string              `json:"location"`
	Status        model.MachineStatus `json:"status"`
}

// AdminBookingRow is one active booking in the admin panel. MachineNumber is
// nil when the booking's machine is not in the snapshot.
type AdminBookingRow struct {
	ID            model.ID `json:"id"`
	MachineID     model.ID `json:"machine_id"`
	MachineNumber *int     `json:"machine_number"`
	StudentName   string   `json:"student_name"`
	StudentRoom   string   `json:"student_room"`
	Duration      int      `json:"duration"`
}

// AdminView is the admin panel: every machine with status controls and every
// active booking with a complete action.
type AdminView struct {
	Machines       []AdminMachineRow `json:"machines"`
	Bookings       []AdminBookingRow `json:"bookings"`
	ActiveSessions int               `json:"active_sessions"`
}

// NewAdminView builds the admin panel from a snapshot.
func NewAdminView(snap model.Snapshot) AdminView {
	view := AdminView{
		Machines: make([]AdminMachineRow, 0, len(snap.Machines)),
		Bookings: make([]AdminBookingRow, 0, len(snap.Bookings)),
	}

	numbers := make(map[model.ID]int, len(snap.Machines))
	for _, m := range snap.Machines {
		numbers[m.ID] = m.MachineNumber
		view.Machines = append(view.Machines, AdminMachineRow{
			ID:            m.ID,
			MachineNumber: m.MachineNumber,
			Floor:         m.Floor,
			Location:      m.Location,
			Status:        m.Status,
		})
	}

	for _, b := range snap.Bookings {
		row := AdminBookingRow{
			ID:          b.ID,
			MachineID:   b.MachineID,
			StudentName: b.StudentName,
			StudentRoom: b.StudentRoom,
			Duration:    b.Duration,
		}
		if n, ok := numbers[b.MachineID]; ok {
			row.MachineNumber = &n
		}
		view.Bookings = append(view.Bookings, row)
	}
	return view
}
