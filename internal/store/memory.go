// Package store keeps live game sessions in memory and provides in-memory
// implementations of the snapshot and event-log ports.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"guinote/internal/app"
	"guinote/internal/domain"
	"guinote/internal/ports"
)

// Transition is a use-case applied to a session's current state.
type Transition func(*domain.GameState) (*domain.GameState, []app.Event, error)

// Session is one live game. Transitions are serialized by its mutex.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu    sync.Mutex
	state *domain.GameState
	seq   int64
}

// Commit receives the outcome of a transition while the session is still locked.
type Commit func(state *domain.GameState, logged []ports.LoggedEvent)

// Apply runs fn against the current state. On success the returned state replaces the
// current one and the events are stamped with consecutive sequence numbers.
func (s *Session) Apply(fn Transition) (*domain.GameState, []ports.LoggedEvent, error) {
	return s.ApplyCommit(fn, nil)
}

// ApplyCommit is Apply with commit run before the lock is released, so outcomes are
// persisted and published in sequence order.
func (s *Session) ApplyCommit(fn Transition, commit Commit) (*domain.GameState, []ports.LoggedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, events, err := fn(s.state)
	if err != nil {
		return nil, nil, err
	}
	s.state = next

	now := time.Now().UTC()
	logged := make([]ports.LoggedEvent, len(events))
	for i, ev := range events {
		s.seq++
		logged[i] = ports.LoggedEvent{GameID: s.ID, Seq: s.seq, At: now, Event: ev}
	}
	out := next.Clone()
	if commit != nil {
		commit(out, logged)
	}
	return out, logged, nil
}

// State returns a copy of the current state.
func (s *Session) State() *domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Seq is the sequence number of the last logged event.
func (s *Session) Seq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// MemoryStore maps game id to session. It also implements ports.SnapshotStore and
// ports.EventLog for single-process deployments and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	snapshots map[string]domain.Snapshot
	events    map[string][]ports.LoggedEvent
}

var (
	_ ports.SnapshotStore = (*MemoryStore)(nil)
	_ ports.EventLog      = (*MemoryStore)(nil)
)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  map[string]*Session{},
		snapshots: map[string]domain.Snapshot{},
		events:    map[string][]ports.LoggedEvent{},
	}
}

// Create registers state under a fresh id.
func (m *MemoryStore) Create(state *domain.GameState) *Session {
	return m.Adopt(uuid.NewString(), state, 0)
}

// Adopt registers state under id, continuing its event log after seq. It replaces any
// session with the same id.
func (m *MemoryStore) Adopt(id string, state *domain.GameState, seq int64) *Session {
	sess := &Session{ID: id, CreatedAt: time.Now().UTC(), state: state, seq: seq}
	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return sess
}

func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// List returns the ids of all live sessions, sorted.
func (m *MemoryStore) List() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (m *MemoryStore) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func (m *MemoryStore) SaveSnapshot(_ context.Context, gameID string, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[gameID] = snap
	return nil
}

func (m *MemoryStore) LoadSnapshot(_ context.Context, gameID string) (domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[gameID]
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("snapshot %s: %w", gameID, ports.ErrNotFound)
	}
	return snap, nil
}

func (m *MemoryStore) AppendEvents(_ context.Context, events []ports.LoggedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range events {
		log := m.events[ev.GameID]
		if n := len(log); n > 0 && log[n-1].Seq >= ev.Seq {
			return fmt.Errorf("append %s seq %d after %d: out of order", ev.GameID, ev.Seq, log[n-1].Seq)
		}
		m.events[ev.GameID] = append(log, ev)
	}
	return nil
}

func (m *MemoryStore) ListEvents(_ context.Context, gameID string, afterSeq int64) ([]ports.LoggedEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ports.LoggedEvent
	for _, ev := range m.events[gameID] {
		if ev.Seq > afterSeq {
			out = append(out, ev)
		}
	}
	return out, nil
}
