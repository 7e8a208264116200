// Package session holds the per-school dashboard state between requests:
// which file is loaded and the results of its last analysis.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// ErrNoState is returned when a school has no loaded analysis.
var ErrNoState = eris.New("session: no state")

// State is everything the dashboard remembers for one school.
type State struct {
	SchoolID   string          `json:"school_id"`
	SchoolName string          `json:"school_name"`
	FileName   string          `json:"file_name"`
	Results    *survey.Results `json:"results"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Store keeps one State per school. Put replaces the whole state; results
// from different runs are never merged.
type Store interface {
	Get(ctx context.Context, schoolID string) (*State, error)
	Put(ctx context.Context, st *State) error
	Delete(ctx context.Context, schoolID string) error
}

type memEntry struct {
	state   *State
	expires time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns a MemoryStore. A ttl of zero keeps state forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry), ttl: ttl, now: time.Now}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Get(_ context.Context, schoolID string) (*State, error) {
	m.mu.RLock()
	e, ok := m.entries[schoolID]
	m.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && m.now().After(e.expires)) {
		return nil, ErrNoState
	}
	return e.state, nil
}

func (m *MemoryStore) Put(_ context.Context, st *State) error {
	if st == nil || st.SchoolID == "" {
		return eris.New("session: state needs a school id")
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = m.now().UTC()
	}
	e := memEntry{state: st}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[st.SchoolID] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, schoolID string) error {
	m.mu.Lock()
	delete(m.entries, schoolID)
	m.mu.Unlock()
	return nil
}
