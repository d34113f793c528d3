package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"laundry-dashboard/internal/model"
)

const (
	defaultActionLimit = 50
	maxActionLimit     = 500
)

// GetAdmin returns the admin panel built from the current snapshot.
func (h *Handler) GetAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.Admin())
}

type putStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PutMachineStatus marks a machine available or out of order.
func (h *Handler) PutMachineStatus(c *gin.Context) {
	var req putStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sid := sessionID(c)
	if err := h.ctrl.SetMachineStatus(c.Request.Context(), sid, model.ID(c.Param("id")), req.Status); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ctrl.View(sid))
}

// PutCompleteBooking marks a booking finished.
func (h *Handler) PutCompleteBooking(c *gin.Context) {
	sid := sessionID(c)
	if err := h.ctrl.CompleteBooking(c.Request.Context(), sid, model.ID(c.Param("id"))); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ctrl.View(sid))
}

// GetActions lists the newest audit log entries, ?limit= bounded to 500.
func (h *Handler) GetActions(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database is not configured"})
		return
	}

	limit := defaultActionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxActionLimit)
	}

	records, err := h.repo.ListActions(c.Request.Context(), limit)
	if err != nil {
		log.Printf("Error listing actions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list actions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": records})
}
