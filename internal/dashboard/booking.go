package dashboard

import (
	"slices"

	"laundry-dashboard/internal/model"
)

// Phase is the state of a session's booking workflow.
//
//	Idle -> FormOpen -> Submitting -> Idle      (success)
//	                              \-> FormOpen  (failure, draft kept)
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseFormOpen   Phase = "form_open"
	PhaseSubmitting Phase = "submitting"
)

// Draft is the unsaved content of the booking form.
type Draft struct {
	StudentName string `json:"student_name"`
	StudentRoom string `json:"student_room"`
	Duration    int    `json:"duration"`
}

// DraftPatch carries the fields a form edit changes; nil fields are left alone.
type DraftPatch struct {
	StudentName *string `json:"student_name"`
	StudentRoom *string `json:"student_room"`
	Duration    *int    `json:"duration"`
}

// Complete reports whether the draft may be submitted. Only emptiness is
// checked; whitespace-only values pass, as the backend is the authority.
func (d Draft) Complete() bool {
	return d.StudentName != "" && d.StudentRoom != ""
}

// bookingForm is one session's booking workflow.
type bookingForm struct {
	phase   Phase
	machine model.Machine
	draft   Draft
	attempt int
}

func (f *bookingForm) open(m model.Machine, defaultDuration int) error {
	if f.phase == PhaseSubmitting {
		return ErrSubmitInProgress
	}
	if !m.Bookable() {
		return ErrMachineNotAvailable
	}
	f.phase = PhaseFormOpen
	f.machine = m
	f.draft = Draft{Duration: defaultDuration}
	return nil
}

func (f *bookingForm) edit(p DraftPatch, durations []int) error {
	if f.phase != PhaseFormOpen {
		if f.phase == PhaseSubmitting {
			return ErrSubmitInProgress
		}
		return ErrNoBookingOpen
	}
	if p.Duration != nil && !slices.Contains(durations, *p.Duration) {
		return ErrInvalidDuration
	}
	if p.StudentName != nil {
		f.draft.StudentName = *p.StudentName
	}
	if p.StudentRoom != nil {
		f.draft.StudentRoom = *p.StudentRoom
	}
	if p.Duration != nil {
		f.draft.Duration = *p.Duration
	}
	return nil
}

// begin moves the form to Submitting and returns the request to send along
// with the attempt number finish must be called with.
func (f *bookingForm) begin(durations []int) (model.BookingRequest, int, error) {
	switch f.phase {
	case PhaseIdle:
		return model.BookingRequest{}, 0, ErrNoBookingOpen
	case PhaseSubmitting:
		return model.BookingRequest{}, 0, ErrSubmitInProgress
	}
	if !f.draft.Complete() {
		return model.BookingRequest{}, 0, ErrDraftIncomplete
	}
	if !slices.Contains(durations, f.draft.Duration) {
		return model.BookingRequest{}, 0, ErrInvalidDuration
	}

	f.phase = PhaseSubmitting
	f.attempt++
	return model.BookingRequest{
		MachineID:   f.machine.ID,
		StudentName: f.draft.StudentName,
		StudentRoom: f.draft.StudentRoom,
		Duration:    f.draft.Duration,
	}, f.attempt, nil
}

// finish applies the outcome of a submission. A form closed (or reopened)
// while the request was in flight is left as it is.
func (f *bookingForm) finish(attempt int, ok bool, defaultDuration int) {
	if f.phase != PhaseSubmitting || f.attempt != attempt {
		return
	}
	if ok {
		f.reset(defaultDuration)
		return
	}
	f.phase = PhaseFormOpen
}

func (f *bookingForm) reset(defaultDuration int) {
	f.phase = PhaseIdle
	f.machine = model.Machine{}
	f.draft = Draft{Duration: defaultDuration}
}
