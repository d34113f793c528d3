package dashboard

import "errors"

var (
	ErrUnknownMachine      = errors.New("machine not found in the current snapshot")
	ErrMachineNotAvailable = errors.New("machine is not available")
	ErrNoBookingOpen       = errors.New("no booking dialog is open")
	ErrSubmitInProgress    = errors.New("booking is already being submitted")
	ErrDraftIncomplete     = errors.New("student name and room are required")
	ErrInvalidDuration     = errors.New("duration is not one of the offered options")
	ErrInvalidFloor        = errors.New("invalid floor selection")
	ErrInvalidStatus       = errors.New("status must be available or out_of_order")
)
