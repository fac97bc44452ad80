// Package session holds the resolved current-user state. The store is an
// explicit, injectable container so tests run isolated instances instead of
// sharing a module-level singleton.
package session

import (
	"sync"

	"venuebook/internal/models"
)

// Event is published to subscribers whenever a session resolves or clears.
// User is nil when the session was signed out.
type Event struct {
	Token string
	User  *models.CurrentUser
}

// Store maps live access tokens to their resolved CurrentUser. Writes come
// only from sign-in, sign-out and bootstrap; everything else reads.
type Store struct {
	mu      sync.RWMutex
	byToken map[string]models.CurrentUser
	loading bool
	subs    map[int]chan Event
	nextSub int
}

func NewStore() *Store {
	return &Store{
		byToken: make(map[string]models.CurrentUser),
		subs:    make(map[int]chan Event),
	}
}

func (s *Store) Put(token string, user models.CurrentUser) {
	if token == "" {
		return
	}
	s.mu.Lock()
	s.byToken[token] = user
	s.mu.Unlock()
	s.notify(Event{Token: token, User: &user})
}

func (s *Store) Delete(token string) {
	s.mu.Lock()
	_, existed := s.byToken[token]
	delete(s.byToken, token)
	s.mu.Unlock()
	if existed {
		s.notify(Event{Token: token, User: nil})
	}
}

// Current returns the resolved user for a token, if bootstrap or sign-in
// already placed one.
func (s *Store) Current(token string) (*models.CurrentUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byToken[token]
	if !ok {
		return nil, false
	}
	return &u, true
}

func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Subscribe returns a channel of session changes and a cancel func. The
// channel is buffered; a slow subscriber drops events rather than blocking
// the writer.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 16)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
