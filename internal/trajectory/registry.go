package trajectory

import (
	"sync"
	"time"
)

// Registry owns the process's live Sessions, keyed by chat id (spec §4.2's
// Session ownership model). It implements watcher.Registry structurally
// (SessionForID) without an import cycle, since Go interfaces are satisfied
// structurally.
type Registry struct {
	mu       sync.RWMutex
	store    *Store
	sessions map[string]*Session
}

// NewRegistry returns an empty Registry backed by store.
func NewRegistry(store *Store) *Registry {
	return &Registry{store: store, sessions: map[string]*Session{}}
}

// SessionForID returns the live session for id, if one is currently held.
func (r *Registry) SessionForID(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Open returns the live session for id, creating one on demand: loading it
// from disk if a trajectory file exists, or starting a fresh empty session
// otherwise (spec §4.9: "A session is created when the client opens a chat
// id that has no in-memory session; if a trajectory file with that id
// exists, messages are loaded and tool-call indices back-filled").
func (r *Registry) Open(id string, now time.Time) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}

	var s *Session
	if r.store.Exists(id) {
		t, err := r.store.Load(id)
		if err != nil {
			return nil, err
		}
		s = LoadSession(t)
	} else {
		s = NewSession(id, now)
	}
	r.sessions[id] = s
	return s, nil
}

// Drop removes id's live session, e.g. after an external delete with no
// pending work (spec's edge case E4).
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of live sessions currently held, for diagnostics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
