package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guinote/internal/app"
	"guinote/internal/domain"
	"guinote/internal/ports"
)

func newState(t *testing.T) *domain.GameState {
	t.Helper()
	s, err := domain.CreateInitialGameState([]domain.Player{
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
	}, 0)
	require.NoError(t, err)
	return s
}

func TestSessionApplyStampsEvents(t *testing.T) {
	m := NewMemoryStore()
	sess := m.Create(newState(t))
	require.NotEmpty(t, sess.ID)

	next, logged, err := sess.Apply(func(s *domain.GameState) (*domain.GameState, []app.Event, error) {
		dealt, err := domain.DealInitial(s)
		return dealt, []app.Event{{Kind: app.EventHandStarted}, {Kind: app.EventHandDealt}}, err
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PhasePlaying, next.Phase)
	require.Len(t, logged, 2)
	assert.Equal(t, int64(1), logged[0].Seq)
	assert.Equal(t, int64(2), logged[1].Seq)
	assert.Equal(t, sess.ID, logged[1].GameID)
	assert.Equal(t, int64(2), sess.Seq())
	assert.Equal(t, domain.PhasePlaying, sess.State().Phase)
}

func TestSessionApplyErrorKeepsState(t *testing.T) {
	sess := NewMemoryStore().Create(newState(t))
	boom := errors.New("boom")

	_, _, err := sess.Apply(func(s *domain.GameState) (*domain.GameState, []app.Event, error) {
		return nil, nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.PhaseDealing, sess.State().Phase)
	assert.Equal(t, int64(0), sess.Seq())
}

func TestSessionApplyCommitRunsUnderLock(t *testing.T) {
	m := NewMemoryStore()
	sess := m.Create(newState(t))

	var committed []ports.LoggedEvent
	_, logged, err := sess.ApplyCommit(func(s *domain.GameState) (*domain.GameState, []app.Event, error) {
		return s, []app.Event{{Kind: app.EventHandStarted}}, nil
	}, func(state *domain.GameState, logged []ports.LoggedEvent) {
		// Another transition cannot start until the commit returns.
		assert.False(t, sess.mu.TryLock())
		assert.Equal(t, domain.PhaseDealing, state.Phase)
		require.NoError(t, m.AppendEvents(context.Background(), logged))
		committed = logged
	})
	require.NoError(t, err)
	assert.Equal(t, logged, committed)

	_, _, err = sess.ApplyCommit(func(*domain.GameState) (*domain.GameState, []app.Event, error) {
		return nil, nil, errors.New("boom")
	}, func(*domain.GameState, []ports.LoggedEvent) {
		t.Fatalf("commit ran for a failed transition")
	})
	require.Error(t, err)
}

func TestSessionStateIsACopy(t *testing.T) {
	sess := NewMemoryStore().Create(newState(t))
	s := sess.State()
	s.DrawPile = nil
	assert.Len(t, sess.State().DrawPile, domain.DeckSize)
}

func TestSessionApplySerializes(t *testing.T) {
	sess := NewMemoryStore().Create(newState(t))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = sess.Apply(func(s *domain.GameState) (*domain.GameState, []app.Event, error) {
				next := s.Clone()
				next.HandNumber++
				return next, []app.Event{{Kind: app.EventCardPlayed}}, nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 51, sess.State().HandNumber)
	assert.Equal(t, int64(50), sess.Seq())
}

func TestMemoryStoreRegistry(t *testing.T) {
	m := NewMemoryStore()
	a := m.Adopt("g-a", newState(t), 7)
	m.Create(newState(t))

	got, ok := m.Get("g-a")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, int64(7), got.Seq())
	assert.Len(t, m.List(), 2)

	assert.True(t, m.Delete("g-a"))
	assert.False(t, m.Delete("g-a"))
	_, ok = m.Get("g-a")
	assert.False(t, ok)
}

func TestMemorySnapshots(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.LoadSnapshot(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	snap := domain.Encode(newState(t))
	require.NoError(t, m.SaveSnapshot(ctx, "g", snap))
	got, err := m.LoadSnapshot(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestMemoryEventLog(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.AppendEvents(ctx, []ports.LoggedEvent{
		{GameID: "g", Seq: 1, Event: app.Event{Kind: app.EventHandStarted}},
		{GameID: "g", Seq: 2, Event: app.Event{Kind: app.EventCardPlayed}},
		{GameID: "h", Seq: 1},
	}))
	assert.Error(t, m.AppendEvents(ctx, []ports.LoggedEvent{{GameID: "g", Seq: 2}}))

	events, err := m.ListEvents(ctx, "g", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, app.EventCardPlayed, events[0].Event.Kind)
}
