package poller

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"laundry-dashboard/internal/backend"
	"laundry-dashboard/internal/message"
	"laundry-dashboard/internal/model"
	"laundry-dashboard/internal/store"
)

// Fetcher is the read side of the backend API.
type Fetcher interface {
	ListMachines(ctx context.Context) ([]model.Machine, error)
	GetStats(ctx context.Context) (model.Stats, error)
	ListActiveBookings(ctx context.Context) ([]model.Booking, error)
}

// Service keeps the store fresh: one refresh on start, then one per tick, plus
// any refresh requested after a user action.
type Service struct {
	fetcher  Fetcher
	store    *store.Store
	board    *message.Board
	interval time.Duration

	seq      atomic.Uint64
	inFlight sync.WaitGroup
}

// NewService creates a poll loop refreshing st from fetcher every interval.
func NewService(fetcher Fetcher, st *store.Store, board *message.Board, interval time.Duration) *Service {
	return &Service{
		fetcher:  fetcher,
		store:    st,
		board:    board,
		interval: interval,
	}
}

// Run refreshes once, then on every tick until ctx is cancelled. Ticks do not
// wait for earlier cycles; a hung cycle never delays the next one.
func (s *Service) Run(ctx context.Context) {
	log.Printf("Starting poll loop (every %s)...", s.interval)

	s.spawn(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Poll loop shutting down.")
			return
		case <-ticker.C:
			s.spawn(ctx)
		}
	}
}

// RefreshAsync starts a refresh cycle without waiting for it. Used after
// mutating actions.
func (s *Service) RefreshAsync() {
	s.spawn(context.Background())
}

// Wait blocks until every cycle started so far has completed.
func (s *Service) Wait() {
	s.inFlight.Wait()
}

func (s *Service) spawn(ctx context.Context) {
	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		_ = s.Refresh(ctx)
	}()
}

// Refresh performs one refresh cycle: machines, stats and active bookings are
// fetched concurrently and applied together. If any fetch fails nothing is
// applied and a transient error is broadcast.
func (s *Service) Refresh(ctx context.Context) error {
	seq := s.seq.Add(1)
	log.Printf("Executing refresh cycle %d...", seq)

	var (
		snap model.Snapshot
		g    errgroup.Group
	)
	g.Go(func() error {
		machines, err := s.fetcher.ListMachines(ctx)
		snap.Machines = machines
		return err
	})
	g.Go(func() error {
		stats, err := s.fetcher.GetStats(ctx)
		snap.Stats = stats
		return err
	})
	g.Go(func() error {
		bookings, err := s.fetcher.ListActiveBookings(ctx)
		snap.Bookings = bookings
		return err
	})

	if err := g.Wait(); err != nil {
		log.Printf("Refresh cycle %d failed, keeping previous snapshot: %v", seq, err)
		if s.board != nil {
			s.board.Broadcast(message.KindError, backend.Reason(err))
		}
		return fmt.Errorf("refresh cycle %d: %w", seq, err)
	}

	if s.store.Replace(seq, snap) {
		log.Printf("Refresh cycle %d applied: %d machines, %d active bookings", seq, len(snap.Machines), len(snap.Bookings))
	}
	return nil
}
