package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"laundry-dashboard/internal/dashboard"
	"laundry-dashboard/internal/db"
	"laundry-dashboard/internal/store"
)

// Refresher runs one refresh cycle and reports its outcome.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	ctrl      *dashboard.Controller
	store     *store.Store
	refresher Refresher
	repo      db.Repository
	webpush   *webpush.Options
}

// NewHandler creates a new API handler. repo and webpushOptions may be nil,
// which disables the audit log and push subscriptions.
func NewHandler(ctrl *dashboard.Controller, st *store.Store, refresher Refresher, repo db.Repository, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		ctrl:      ctrl,
		store:     st,
		refresher: refresher,
		repo:      repo,
		webpush:   webpushOptions,
	}
}
