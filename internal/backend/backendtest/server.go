// Package backendtest provides an in-memory reservation backend for tests.
package backendtest

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"time"

	"laundry-dashboard/internal/model"
)

// Server is a fake reservation backend served over httptest.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	machines    []model.Machine
	bookings    []model.Booking
	nextBooking int
	failing     map[string]bool
	requests    map[string]int
}

// SeedMachines returns the backend's six sample machines.
func SeedMachines() []model.Machine {
	user := func(s string) *string { return &s }
	minutes := func(n int) *int { return &n }
	return []model.Machine{
		{ID: "1", MachineNumber: 1, Floor: 1, Location: "Laundry Room A", Status: model.StatusAvailable},
		{ID: "2", MachineNumber: 2, Floor: 1, Location: "Laundry Room A", Status: model.StatusInUse, CurrentUser: user("Student A"), TimeRemaining: minutes(25)},
		{ID: "3", MachineNumber: 3, Floor: 1, Location: "Laundry Room A", Status: model.StatusAvailable},
		{ID: "4", MachineNumber: 4, Floor: 1, Location: "Laundry Room A", Status: model.StatusOutOfOrder},
		{ID: "5", MachineNumber: 5, Floor: 2, Location: "Laundry Room B", Status: model.StatusInUse, CurrentUser: user("Student B"), TimeRemaining: minutes(45)},
		{ID: "6", MachineNumber: 6, Floor: 2, Location: "Laundry Room B", Status: model.StatusAvailable},
	}
}

// NewServer starts a backend holding machines and bookings. New bookings are
// numbered from 12.
func NewServer(machines []model.Machine, bookings []model.Booking) *Server {
	s := &Server{
		machines:    slices.Clone(machines),
		bookings:    slices.Clone(bookings),
		nextBooking: 12,
		failing:     make(map[string]bool),
		requests:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/machines", s.listMachines)
	mux.HandleFunc("PUT /api/machines/{id}", s.updateMachine)
	mux.HandleFunc("GET /api/stats", s.stats)
	mux.HandleFunc("POST /api/bookings", s.createBooking)
	mux.HandleFunc("GET /api/bookings/active", s.activeBookings)
	mux.HandleFunc("PUT /api/bookings/{id}/complete", s.completeBooking)

	s.Server = httptest.NewServer(s.middleware(mux))
	return s
}

// Fail makes every request matching pattern ("GET /api/stats") answer 500
// until it is called again with fail false.
func (s *Server) Fail(pattern string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[pattern] = fail
}

// Requests returns how many requests matched pattern.
func (s *Server) Requests(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[pattern]
}

// Machines returns the backend's current machines.
func (s *Server) Machines() []model.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.machines)
}

// ActiveBookings returns the backend's current active bookings.
func (s *Server) ActiveBookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bookings)
}

func (s *Server) middleware(next *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := next.Handler(r)
		s.mu.Lock()
		s.requests[pattern]++
		fail := s.failing[pattern]
		s.mu.Unlock()

		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal Server Error"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listMachines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Machines())
}

func (s *Server) activeBookings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ActiveBookings())
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var stats model.Stats
	stats.TotalMachines = len(s.machines)
	for _, m := range s.machines {
		switch m.Status {
		case model.StatusAvailable:
			stats.AvailableMachines++
		case model.StatusInUse:
			stats.InUseMachines++
		case model.StatusOutOfOrder:
			stats.OutOfOrderMachines++
		}
	}
	s.mu.Unlock()

	if stats.TotalMachines > 0 {
		rate := float64(stats.InUseMachines) / float64(stats.TotalMachines) * 100
		stats.UsageRate = math.Round(rate*10) / 10
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) updateMachine(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status model.MachineStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{err.Error()}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.machineIndex(model.ID(r.PathValue("id")))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Machine not found"})
		return
	}
	s.machines[i].Status = body.Status
	writeJSON(w, http.StatusOK, s.machines[i])
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{err.Error()}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.machineIndex(req.MachineID)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Machine not found"})
		return
	}
	if s.machines[i].Status != model.StatusAvailable {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Machine is not available"})
		return
	}

	start := time.Now().UTC()
	booking := model.Booking{
		ID:          model.ID(strconv.Itoa(s.nextBooking)),
		MachineID:   req.MachineID,
		StudentName: req.StudentName,
		StudentRoom: req.StudentRoom,
		Duration:    req.Duration,
		StartTime:   &start,
		Status:      "active",
	}
	s.nextBooking++
	s.bookings = append(s.bookings, booking)

	name, duration := req.StudentName, req.Duration
	s.machines[i].Status = model.StatusInUse
	s.machines[i].CurrentUser = &name
	s.machines[i].TimeRemaining = &duration

	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) completeBooking(w http.ResponseWriter, r *http.Request) {
	id := model.ID(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	j := slices.IndexFunc(s.bookings, func(b model.Booking) bool { return b.ID == id })
	if j < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Booking not found"})
		return
	}
	booking := s.bookings[j]
	s.bookings = slices.Delete(s.bookings, j, j+1)

	if i := s.machineIndex(booking.MachineID); i >= 0 {
		s.machines[i].Status = model.StatusAvailable
		s.machines[i].CurrentUser = nil
		s.machines[i].TimeRemaining = nil
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Booking completed successfully"})
}

func (s *Server) machineIndex(id model.ID) int {
	return slices.IndexFunc(s.machines, func(m model.Machine) bool { return m.ID == id })
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
