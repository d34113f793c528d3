package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-dashboard/internal/db"
	"laundry-dashboard/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint           string     `json:"endpoint" binding:"required"`
	P256DH             string     `json:"p256dh" binding:"required"`
	Auth               string     `json:"auth" binding:"required"`
	SubscribedMachines []model.ID `json:"subscribed_machines"`
}

func (h *Handler) subscriptionsEnabled(c *gin.Context) bool {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database is not configured"})
		return false
	}
	return true
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !h.subscriptionsEnabled(c) {
		return
	}

	machineIDs := make([]string, 0, len(req.SubscribedMachines))
	for _, id := range req.SubscribedMachines {
		machineIDs = append(machineIDs, id.String())
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.repo.SaveSubscription(c.Request.Context(), subscription, machineIDs); err != nil {
		log.Printf("Error saving subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !h.subscriptionsEnabled(c) {
		return
	}

	if err := h.repo.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		log.Printf("Error deleting subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subscription"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSubscription returns the machines a subscription watches.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}
	if !h.subscriptionsEnabled(c) {
		return
	}

	subscription, err := h.repo.GetSubscription(c.Request.Context(), endpoint)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	if err != nil {
		log.Printf("Error loading subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
		return
	}

	machineIDs := make([]model.ID, len(subscription.Machines))
	for i, machine := range subscription.Machines {
		machineIDs[i] = model.ID(machine.MachineID)
	}

	c.JSON(http.StatusOK, gin.H{"subscribed_machines": machineIDs})
}
