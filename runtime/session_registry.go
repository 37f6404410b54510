// Package runtime coordinates live sessions, room membership, and message
// dispatch. It owns the only mutable shared state of the relay and keeps the
// domain and transport layers free of locking concerns.
package runtime

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"chat-relay/contract"
	"chat-relay/errors"
)

// Session is the live binding between one connection and one authenticated
// username. Color is assigned once at bind time and stable for the session.
type Session struct {
	Username string
	Color    string
	Conn     contract.Conn
}

// SessionRegistry owns the bidirectional connection <-> username mapping.
// All operations are linearizable with respect to each other: two concurrent
// Bind calls for the same username cannot both succeed.
type SessionRegistry struct {
	mu     sync.RWMutex
	byConn map[string]*Session // conn ID -> session
	byUser map[string]*Session
	colors *rand.Rand
}

// NewSessionRegistry builds a registry whose color assignment is driven by an
// explicitly seeded generator, so a given login order yields a reproducible
// palette.
func NewSessionRegistry(colorSeed uint64) *SessionRegistry {
	return &SessionRegistry{
		byConn: make(map[string]*Session),
		byUser: make(map[string]*Session),
		colors: rand.New(rand.NewPCG(colorSeed, colorSeed)),
	}
}

// Bind registers both directions of the mapping in one critical section and
// assigns the session color. It fails if the username is already live; the
// duplicate-online check and the insertion are a single atomic step.
func (r *SessionRegistry) Bind(conn contract.Conn, username string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, online := r.byUser[username]; online {
		return Session{}, fmt.Errorf("%w: %s", errors.ErrAlreadyOnline, username)
	}

	s := &Session{
		Username: username,
		Color:    fmt.Sprintf("#%06X", r.colors.IntN(0x1000000)),
		Conn:     conn,
	}
	r.byConn[conn.ID()] = s
	r.byUser[username] = s
	return *s, nil
}

// LookupUser resolves the session bound to a connection.
func (r *SessionRegistry) LookupUser(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byConn[connID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// LookupConn resolves the session of an online username.
func (r *SessionRegistry) LookupConn(username string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byUser[username]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Unbind removes both directions of the mapping. It is idempotent: unbinding
// a connection that never authenticated reports ok=false and changes nothing.
func (r *SessionRegistry) Unbind(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byConn[connID]
	if !ok {
		return Session{}, false
	}
	delete(r.byConn, connID)
	delete(r.byUser, s.Username)
	return *s, true
}
