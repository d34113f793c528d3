package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"laundry-dashboard/internal/parse"
)

// Session is one browser's UI selection state. It lives only in memory and is
// dropped after a period of inactivity.
type Session struct {
	ID string

	mu        sync.Mutex
	floor     parse.FloorSelection
	booking   bookingForm
	adminOpen bool
}

// Sessions is the registry of live sessions.
type Sessions struct {
	mu    sync.Mutex
	items *cache.Cache
	ttl   time.Duration

	defaultDuration int
}

// NewSessions creates a registry whose sessions expire after ttl of inactivity.
func NewSessions(ttl time.Duration, defaultDuration int) *Sessions {
	return &Sessions{
		items:           cache.New(ttl, ttl),
		ttl:             ttl,
		defaultDuration: defaultDuration,
	}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// Get returns the session for id, creating it when it is unknown or expired.
// Every call extends the session's lifetime.
func (s *Sessions) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.items.Get(id); ok {
		sess := v.(*Session)
		s.items.Set(id, sess, s.ttl)
		return sess
	}

	sess := &Session{ID: id, floor: parse.FloorSelection{All: true}}
	sess.booking.reset(s.defaultDuration)
	s.items.Set(id, sess, s.ttl)
	return sess
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	return s.items.ItemCount()
}
