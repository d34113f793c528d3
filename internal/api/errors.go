package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-dashboard/internal/backend"
	"laundry-dashboard/internal/dashboard"
)

// writeError maps controller and backend errors to a status and a
// {"error": ...} body.
func writeError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": errorText(err)})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrUnknownMachine):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrInvalidFloor),
		errors.Is(err, dashboard.ErrInvalidDuration),
		errors.Is(err, dashboard.ErrInvalidStatus),
		errors.Is(err, dashboard.ErrDraftIncomplete):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrMachineNotAvailable),
		errors.Is(err, dashboard.ErrNoBookingOpen),
		errors.Is(err, dashboard.ErrSubmitInProgress):
		return http.StatusConflict
	}

	var be *backend.Error
	if errors.As(err, &be) {
		// The backend's own client errors keep their status.
		if be.StatusCode >= 400 && be.StatusCode < 500 {
			return be.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorText(err error) string {
	var be *backend.Error
	if errors.As(err, &be) {
		return be.Reason()
	}
	return err.Error()
}
