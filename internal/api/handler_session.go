package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-dashboard/internal/dashboard"
	"laundry-dashboard/internal/model"
)

type putFloorRequest struct {
	Floor string `json:"floor"`
}

// PutFloor changes the session's floor filter.
func (h *Handler) PutFloor(c *gin.Context) {
	var req putFloorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sid := sessionID(c)
	if err := h.ctrl.SelectFloor(sid, req.Floor); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ctrl.View(sid))
}

type postBookingRequest struct {
	MachineID model.ID `json:"machine_id" binding:"required"`
}

// PostBooking opens the booking dialog for a machine.
func (h *Handler) PostBooking(c *gin.Context) {
	var req postBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sid := sessionID(c)
	if err := h.ctrl.OpenBooking(sid, req.MachineID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ctrl.View(sid))
}

// PatchBooking edits the open booking draft.
func (h *Handler) PatchBooking(c *gin.Context) {
	var patch dashboard.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sid := sessionID(c)
	if err := h.ctrl.UpdateDraft(sid, patch); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ctrl.View(sid))
}

// DeleteBooking closes the booking dialog.
func (h *Handler) DeleteBooking(c *gin.Context) {
	sid := sessionID(c)
	h.ctrl.CloseBooking(sid)
	c.JSON(http.StatusOK, h.ctrl.View(sid))
}

// PostSubmitBooking submits the open draft to the backend.
func (h *Handler) PostSubmitBooking(c *gin.Context) {
	sid := sessionID(c)
	booking, err := h.ctrl.SubmitBooking(c.Request.Context(), sid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking, "view": h.ctrl.View(sid)})
}

// PostAdmin opens the admin panel.
func (h *Handler) PostAdmin(c *gin.Context) {
	sid := sessionID(c)
	h.ctrl.OpenAdmin(sid)
	c.JSON(http.StatusOK, h.ctrl.View(sid))
}

// DeleteAdmin closes the admin panel.
func (h *Handler) DeleteAdmin(c *gin.Context) {
	sid := sessionID(c)
	h.ctrl.CloseAdmin(sid)
	c.JSON(http.StatusOK, h.ctrl.View(sid))
}

// DeleteMessage dismisses the session's transient message.
func (h *Handler) DeleteMessage(c *gin.Context) {
	h.ctrl.DismissMessage(sessionID(c))
	c.Status(http.StatusNoContent)
}
