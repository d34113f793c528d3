package message

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Kind classifies a message for display.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is a transient notice shown on the dashboard.
type Message struct {
	Text     string    `json:"text"`
	Kind     Kind      `json:"kind"`
	PostedAt time.Time `json:"posted_at"`
}

const broadcastKey = "*"

// Board keeps the latest message per session plus one broadcast message for
// everyone. Messages expire on their own after the board's TTL.
type Board struct {
	items *cache.Cache
	ttl   time.Duration
}

// NewBoard creates a board whose messages disappear after ttl.
func NewBoard(ttl time.Duration) *Board {
	return &Board{
		items: cache.New(ttl, ttl),
		ttl:   ttl,
	}
}

// Post shows text to one session, replacing any message it already had.
func (b *Board) Post(session string, kind Kind, text string) {
	b.items.Set(sessionKey(session), Message{Text: text, Kind: kind, PostedAt: time.Now()}, b.ttl)
}

// Broadcast shows text to every session.
func (b *Board) Broadcast(kind Kind, text string) {
	b.items.Set(broadcastKey, Message{Text: text, Kind: kind, PostedAt: time.Now()}, b.ttl)
}

// Current returns the newest unexpired message visible to session.
func (b *Board) Current(session string) (Message, bool) {
	own, hasOwn := b.get(sessionKey(session))
	shared, hasShared := b.get(broadcastKey)
	switch {
	case hasOwn && hasShared:
		if shared.PostedAt.After(own.PostedAt) {
			return shared, true
		}
		return own, true
	case hasOwn:
		return own, true
	case hasShared:
		return shared, true
	}
	return Message{}, false
}

// Dismiss removes the session's own message.
func (b *Board) Dismiss(session string) {
	b.items.Delete(sessionKey(session))
}

func (b *Board) get(key string) (Message, bool) {
	v, ok := b.items.Get(key)
	if !ok {
		return Message{}, false
	}
	return v.(Message), true
}

func sessionKey(session string) string {
	return "s:" + session
}
