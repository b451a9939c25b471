package stream

import "sync"

// Registry is the single source of truth for live sessions, keyed by stream
// key. A session is present iff its process is believed alive: the
// supervisor inserts after a successful spawn and the exit reaper removes.
// All structural mutations go through the one mutex, so a check-then-insert
// for a key is atomic with respect to concurrent starts and exits.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for key, or nil.
func (r *Registry) Get(key string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[key]
}

// Insert adds a session under its stream key. It reports false, without
// touching the map, if the key is already occupied.
func (r *Registry) Insert(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.StreamKey]; exists {
		return false
	}
	r.sessions[s.StreamKey] = s
	return true
}

// Remove deletes the session for key. Removing an absent key is a no-op, so
// an explicit stop and the exit reaper never trip over each other.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}

// List returns a snapshot of the live sessions in no particular order.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// InUse reports whether any live session is streaming the named source file.
func (r *Registry) InUse(fileName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.SourceFile == fileName {
			return true
		}
	}
	return false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
