package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultIdleTTL = 2 * time.Hour

type sessionKey struct {
	session string
	ownerID string
}

type entry struct {
	cart     *Aggregator
	lastSeen time.Time
}

// Sessions holds one Aggregator per browser session and restaurant. Carts idle
// for longer than ttl are dropped by Sweep.
type Sessions struct {
	tracker Tracker
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	carts map[sessionKey]*entry
}

func NewSessions(tracker Tracker, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Sessions{
		tracker: tracker,
		ttl:     ttl,
		now:     time.Now,
		carts:   make(map[sessionKey]*entry),
	}
}

func NewSessionID() string {
	return uuid.NewString()
}

// Cart returns the session's cart for ownerID, creating it on first use.
func (s *Sessions) Cart(sessionID, ownerID string) *Aggregator {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{session: sessionID, ownerID: ownerID}
	e, ok := s.carts[key]
	if !ok {
		e = &entry{cart: NewAggregator(ownerID, s.tracker)}
		s.carts[key] = e
	}
	e.lastSeen = s.now()
	return e.cart
}

// Sweep drops idle carts and returns how many were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for key, e := range s.carts {
		if e.lastSeen.Before(cutoff) {
			delete(s.carts, key)
			removed++
		}
	}
	return removed
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
