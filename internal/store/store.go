package store

import (
	"log"
	"slices"
	"sync"
	"time"

	"laundry-dashboard/internal/model"
)

// Policy decides whether a completed refresh cycle may overwrite the store.
type Policy int

const (
	// LastWriterWins applies every successful cycle in completion order, even
	// when an older cycle completes after a newer one.
	LastWriterWins Policy = iota
	// DiscardStale applies a cycle only if its sequence number is greater than
	// that of the last applied cycle.
	DiscardStale
)

func (p Policy) String() string {
	if p == DiscardStale {
		return "discard_stale"
	}
	return "last_writer_wins"
}

// State is a read-only view of the store at one point in time.
type State struct {
	Snapshot  model.Snapshot
	Version   uint64 // number of snapshots applied so far
	Loaded    bool   // false until the first successful cycle
	UpdatedAt time.Time
}

// Update is delivered to subscribers every time a snapshot is applied.
type Update struct {
	Version  uint64
	Previous model.Snapshot
	Current  model.Snapshot
}

// Store holds the latest machines, stats and active bookings. The three are
// only ever replaced together.
type Store struct {
	mu      sync.RWMutex
	policy  Policy
	state   State
	lastSeq uint64

	subsMu  sync.Mutex
	subs    map[int]chan Update
	nextSub int
}

// New creates an empty store.
func New(policy Policy) *Store {
	return &Store{
		policy: policy,
		subs:   make(map[int]chan Update),
	}
}

// Replace swaps in the snapshot produced by refresh cycle seq. It reports
// whether the snapshot was applied.
func (s *Store) Replace(seq uint64, snap model.Snapshot) bool {
	s.mu.Lock()
	if s.policy == DiscardStale && s.state.Loaded && seq <= s.lastSeq {
		s.mu.Unlock()
		log.Printf("Discarding stale refresh cycle %d (last applied %d)", seq, s.lastSeq)
		return false
	}

	previous := s.state.Snapshot
	current := cloneSnapshot(snap)
	s.state = State{
		Snapshot:  current,
		Version:   s.state.Version + 1,
		Loaded:    true,
		UpdatedAt: time.Now().UTC(),
	}
	if seq > s.lastSeq {
		s.lastSeq = seq
	}
	update := Update{Version: s.state.Version, Previous: previous, Current: current}
	s.mu.Unlock()

	s.publish(update)
	return true
}

// State returns a copy of the current state. Callers may modify the returned
// slices freely.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Snapshot = cloneSnapshot(st.Snapshot)
	return st
}

// Version returns the number of snapshots applied so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Version
}

// Subscribe registers for applied snapshots. The returned function must be
// called to unsubscribe. Slow subscribers miss updates rather than block Replace.
func (s *Store) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 16)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(u Update) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for id, ch := range s.subs {
		select {
		case ch <- u:
		default:
			log.Printf("Subscriber %d is not keeping up; dropping snapshot version %d", id, u.Version)
		}
	}
}

func cloneSnapshot(snap model.Snapshot) model.Snapshot {
	return model.Snapshot{
		Machines: slices.Clone(snap.Machines),
		Stats:    snap.Stats,
		Bookings: slices.Clone(snap.Bookings),
	}
}
