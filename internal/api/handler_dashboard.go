package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-dashboard/internal/backend"
	"laundry-dashboard/internal/dashboard"
	"laundry-dashboard/internal/parse"
)

const loadingError = "dashboard data is still loading"

// GetIndex renders the HTML dashboard for the caller's session.
func (h *Handler) GetIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.tmpl", h.ctrl.View(sessionID(c)))
}

// GetDashboard returns the full view model for the caller's session.
func (h *Handler) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.View(sessionID(c)))
}

// GetMachines returns the machines of the current snapshot, optionally
// narrowed with ?floor=.
func (h *Handler) GetMachines(c *gin.Context) {
	sel, err := parse.ParseFloor(c.Query("floor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := h.store.State()
	if !st.Loaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": loadingError})
		return
	}
	c.JSON(http.StatusOK, dashboard.FilterMachines(st.Snapshot.Machines, sel))
}

// GetFloors returns the distinct floors in ascending order.
func (h *Handler) GetFloors(c *gin.Context) {
	st := h.store.State()
	if !st.Loaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": loadingError})
		return
	}
	c.JSON(http.StatusOK, gin.H{"floors": dashboard.Floors(st.Snapshot.Machines)})
}

// GetStats returns the backend's stats and the cards rendered from them.
func (h *Handler) GetStats(c *gin.Context) {
	st := h.store.State()
	if !st.Loaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": loadingError})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats": st.Snapshot.Stats,
		"cards": dashboard.StatsCards(st.Snapshot.Stats),
	})
}

// GetActiveBookings returns the active bookings of the current snapshot.
func (h *Handler) GetActiveBookings(c *gin.Context) {
	st := h.store.State()
	if !st.Loaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": loadingError})
		return
	}
	c.JSON(http.StatusOK, st.Snapshot.Bookings)
}

// PostRefresh runs a refresh cycle now and returns the updated view. The
// cycle finishes even if the client goes away.
func (h *Handler) PostRefresh(c *gin.Context) {
	sid := sessionID(c)
	if err := h.refresher.Refresh(context.WithoutCancel(c.Request.Context())); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": backend.Reason(err)})
		return
	}
	h.ctrl.NoteRefreshed(sid)
	c.JSON(http.StatusOK, h.ctrl.View(sid))
}
