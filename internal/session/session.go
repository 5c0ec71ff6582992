// Package session keeps each buyer's storefront state in memory. All changes to one
// session are serialized; different sessions never block each other.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anugrahsy/monolog-food-orders-app/internal/cart"
	"github.com/anugrahsy/monolog-food-orders-app/internal/distance"
	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
	"github.com/anugrahsy/monolog-food-orders-app/internal/order"
	"github.com/anugrahsy/monolog-food-orders-app/internal/pricing"
	"github.com/anugrahsy/monolog-food-orders-app/internal/selector"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrInvalidID = errors.New("invalid session id")
)

// State is everything one buyer has done since opening the storefront.
type State struct {
	Cart     cart.Cart
	Selector selector.Selector
	Distance distance.Km
	Lookup   distance.Lookup
	Promo    pricing.Promo
	Customer order.CustomerDetails
}

type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	lastSeen time.Time
	dropped  bool // restore failed; callers already holding it must not use it
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a session with an empty state and returns its ID.
func (m *Manager) Create() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &Session{ID: id, lastSeen: m.now()}
	m.mu.Unlock()
	return id
}

// Resume returns the session for id, creating it under that ID if the server no
// longer knows it. A new session is registered locked and filled by restore before
// any other caller can reach its state; if restore fails it is dropped again.
// created reports which happened.
func (m *Manager) Resume(id string, restore func(*State) error) (created bool, err error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, ErrInvalidID
	}

	m.mu.Lock()
	if s, ok := m.sessions[id]; ok && !m.expired(s) {
		m.mu.Unlock()
		return false, nil
	}
	s := &Session{ID: id, lastSeen: m.now()}
	s.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	defer s.mu.Unlock()

	if restore == nil {
		return true, nil
	}
	st := s.state
	if err := restore(&st); err != nil {
		s.dropped = true
		m.mu.Lock()
		if m.sessions[id] == s {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
		return false, err
	}
	s.state = st
	return true, nil
}

// With runs fn on a copy of the session state while holding the session lock.
// The copy replaces the stored state only when fn succeeds.
func (m *Manager) With(id string, fn func(*State) error) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return ErrNotFound
	}

	st := s.state
	if err := fn(&st); err != nil {
		return err
	}
	s.state = st
	return nil
}

// View returns a copy of the current state.
func (m *Manager) View(id string) (State, error) {
	var out State
	err := m.With(id, func(st *State) error {
		out = *st
		return nil
	})
	return out, err
}

func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(s) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	s.lastSeen = m.now()
	return s, nil
}

// expired must be called with m.mu held.
func (m *Manager) expired(s *Session) bool {
	return m.ttl > 0 && m.now().Sub(s.lastSeen) > m.ttl
}

// CleanExpired drops idle sessions and returns how many were removed.
func (m *Manager) CleanExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartCleanup sweeps expired sessions every interval until ctx is done.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.CleanExpired(); n > 0 {
					logger.LogInfo("Session cleanup removed %d idle sessions", n)
				}
			}
		}
	}()
}
