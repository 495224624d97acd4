package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	mu       sync.Mutex
	cart     *Cart
	lastSeen time.Time
}

// Sessions owns one Cart per cart session id.
//
// The registry never touches a Cart concurrently: With holds the session's
// lock for the whole callback, so a request's add-then-read sequence runs
// without interleaving.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// With runs fn with exclusive access to the cart of the given session. An
// empty or unknown id opens a new session; the id actually used is returned.
func (s *Sessions) With(id string, fn func(c *Cart) error) (string, error) {
	sess, id := s.acquire(id)
	defer sess.mu.Unlock()

	return id, fn(sess.cart)
}

// WithExisting runs fn like With, but only when id names a live session.
// It reports whether it did; unknown ids are never registered.
func (s *Sessions) WithExisting(id string, fn func(c *Cart) error) (bool, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return true, fn(sess.cart)
}

func (s *Sessions) acquire(id string) (*session, string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok || id == "" {
		id = uuid.New().String()
		sess = &session{cart: New()}
		s.sessions[id] = sess
	}
	sess.lastSeen = s.now()
	s.mu.Unlock()

	sess.mu.Lock()
	return sess, id
}

// Exists reports whether id names a live session.
func (s *Sessions) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// Drop forgets a session.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Expire drops sessions idle for longer than ttl and returns how many went.
func (s *Sessions) Expire(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}
