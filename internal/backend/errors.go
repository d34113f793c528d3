package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Op names one backend operation.
type Op string

const (
	OpListMachines        Op = "list machines"
	OpGetStats            Op = "get stats"
	OpListActiveBookings  Op = "list active bookings"
	OpCreateBooking       Op = "create booking"
	OpCompleteBooking     Op = "complete booking"
	OpUpdateMachineStatus Op = "update machine status"
)

var fallbackReasons = map[Op]string{
	OpListMachines:        "failed to load data",
	OpGetStats:            "failed to load data",
	OpListActiveBookings:  "failed to load data",
	OpCreateBooking:       "booking failed",
	OpCompleteBooking:     "failed to update status",
	OpUpdateMachineStatus: "failed to update status",
}

// Error is returned by every Client method on failure. It covers transport
// failures (Err set) and non-2xx responses (StatusCode set, Detail when the
// server sent one).
type Error struct {
	Op         Op
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("backend %s: status %d", e.Op, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Reason is the text shown to the user. Only booking creation surfaces the
// server's detail message; other operations use a generic message.
func (e *Error) Reason() string {
	if e.Op == OpCreateBooking && e.Detail != "" {
		return e.Detail
	}
	if r, ok := fallbackReasons[e.Op]; ok {
		return r
	}
	return "request failed"
}

// Reason extracts the user-facing reason from any error returned by Client.
func Reason(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Reason()
	}
	return "request failed"
}

// errorResponse is the backend's error body, e.g. {"detail":"Machine not found"}.
// Validation errors carry a list in detail, which is not surfaced.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

func (r errorResponse) detailText() string {
	if len(r.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Detail, &s); err != nil {
		return ""
	}
	return s
}
