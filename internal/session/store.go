package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"canteen-planner/internal/planner"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastSeen atomic.Int64 // unix nanoseconds
}

// Store holds live sessions in memory. Each session has its own lock so
// mutations of one user's plan never wait on another's.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	codec    planner.PayloadCodec
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
// A zero ttl keeps sessions until deleted.
func NewStore(codec planner.PayloadCodec, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		codec:    codec,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new session under a random id.
func (st *Store) Create() string {
	id := uuid.NewString()
	st.mu.Lock()
	st.sessions[id] = st.newEntry(id)
	st.mu.Unlock()

	log.Debug().Str("session", id).Msg("session created")
	return id
}

// Ensure returns key, creating a session under it if none is live. Chat
// shells use it to key sessions by chat id.
func (st *Store) Ensure(key string) string {
	st.mu.Lock()
	defer st.mu.Unlock()

	if e, ok := st.sessions[key]; ok && !st.expired(e) {
		return key
	}
	st.sessions[key] = st.newEntry(key)
	log.Debug().Str("session", key).Msg("session created")
	return key
}

func (st *Store) newEntry(id string) *entry {
	now := st.now()
	e := &entry{session: newSession(id, st.codec, now)}
	e.lastSeen.Store(now.UnixNano())
	return e
}

// Update runs fn with exclusive access to the session. Calls on the same
// session are serialized.
func (st *Store) Update(id string, fn func(*Session) error) error {
	st.mu.Lock()
	e, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if st.expired(e) {
		st.remove(id, e)
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	e.lastSeen.Store(st.now().UnixNano())
	return fn(e.session)
}

// Get returns a snapshot of the session.
func (st *Store) Get(id string) (Snapshot, error) {
	var snap Snapshot
	err := st.Update(id, func(s *Session) error {
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

// Delete drops a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of sessions held, expired ones included until the
// next cleanup.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// CleanupExpired removes every expired session and returns how many.
func (st *Store) CleanupExpired() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, e := range st.sessions {
		// A session busy in Update is live by definition.
		if !e.mu.TryLock() {
			continue
		}
		if st.expired(e) {
			delete(st.sessions, id)
			removed++
		}
		e.mu.Unlock()
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("expired sessions cleaned up")
	}
	return removed
}

func (st *Store) expired(e *entry) bool {
	if st.ttl <= 0 {
		return false
	}
	return st.now().Sub(time.Unix(0, e.lastSeen.Load())) > st.ttl
}

func (st *Store) remove(id string, e *entry) {
	st.mu.Lock()
	if st.sessions[id] == e {
		delete(st.sessions, id)
	}
	st.mu.Unlock()
}
