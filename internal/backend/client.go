package backend

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"laundry-dashboard/config"
	"laundry-dashboard/internal/model"
)

// Client talks to the reservation backend's REST API. It never retries and
// never caches; every call maps to exactly one HTTP request.
type Client struct {
	http *resty.Client
}

// NewClient creates a backend client for cfg.BaseURL.
func NewClient(cfg config.BackendConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")

	if cfg.TimeoutSeconds > 0 {
		client.SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	}
	if cfg.HTTPProxy != "" {
		client.SetProxy(cfg.HTTPProxy)
	}

	return &Client{http: client}
}

// ListMachines handles GET /api/machines.
func (c *Client) ListMachines(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	if err := c.do(ctx, OpListMachines, http.MethodGet, "/api/machines", nil, nil, &machines); err != nil {
		return nil, err
	}
	return machines, nil
}

// GetStats handles GET /api/stats.
func (c *Client) GetStats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	if err := c.do(ctx, OpGetStats, http.MethodGet, "/api/stats", nil, nil, &stats); err != nil {
		return model.Stats{}, err
	}
	return stats, nil
}

// ListActiveBookings handles GET /api/bookings/active.
func (c *Client) ListActiveBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := c.do(ctx, OpListActiveBookings, http.MethodGet, "/api/bookings/active", nil, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CreateBooking handles POST /api/bookings.
func (c *Client) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	var booking model.Booking
	if err := c.do(ctx, OpCreateBooking, http.MethodPost, "/api/bookings", nil, req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CompleteBooking handles PUT /api/bookings/{id}/complete.
func (c *Client) CompleteBooking(ctx context.Context, bookingID model.ID) error {
	params := map[string]string{"id": bookingID.String()}
	return c.do(ctx, OpCompleteBooking, http.MethodPut, "/api/bookings/{id}/complete", params, nil, nil)
}

// UpdateMachineStatus handles PUT /api/machines/{id}.
func (c *Client) UpdateMachineStatus(ctx context.Context, machineID model.ID, status model.MachineStatus) (*model.Machine, error) {
	params := map[string]string{"id": machineID.String()}
	body := map[string]model.MachineStatus{"status": status}

	var machine model.Machine
	if err := c.do(ctx, OpUpdateMachineStatus, http.MethodPut, "/api/machines/{id}", params, body, &machine); err != nil {
		return nil, err
	}
	return &machine, nil
}

func (c *Client) do(ctx context.Context, op Op, method, path string, pathParams map[string]string, body, result any) error {
	var errBody errorResponse
	req := c.http.R().
		SetContext(ctx).
		SetError(&errBody)
	if pathParams != nil {
		req.SetPathParams(pathParams)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		log.Printf("Backend %s failed: %v", op, err)
		return &Error{Op: op, Err: err}
	}
	if resp.IsError() {
		return &Error{Op: op, StatusCode: resp.StatusCode(), Detail: errBody.detailText()}
	}
	return nil
}
