package server

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/plantquant/internal/imaging"
	"github.com/ironsheep/plantquant/internal/plant"
)

// sessionEntry guards one plant session. Tool calls on the same session
// are serialized; different sessions proceed independently. Each session
// owns the cache its channels are decoded into, so a new scan always reads
// the files as they are on disk.
type sessionEntry struct {
	mu      sync.Mutex
	session *plant.Session
	cache   *imaging.SourceCache
}

type sessionStore struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

func newSessionStore() *sessionStore {
	return &sessionStore{entries: make(map[string]*sessionEntry)}
}

// add registers ps, which loads its channels through cache, and returns its
// new ID.
func (st *sessionStore) add(ps *plant.Session, cache *imaging.SourceCache) string {
	id := uuid.NewString()
	st.mu.Lock()
	st.entries[id] = &sessionEntry{session: ps, cache: cache}
	st.mu.Unlock()
	return id
}

// with runs fn while holding the session's lock.
func (st *sessionStore) with(id string, fn func(*plant.Session) error) error {
	st.mu.RLock()
	e, ok := st.entries[id]
	st.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown session: %q", id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// remove drops the session and releases its decoded channels.
func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	e, ok := st.entries[id]
	if ok {
		delete(st.entries, id)
	}
	st.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	e.cache.Clear()
	e.mu.Unlock()
	return true
}
