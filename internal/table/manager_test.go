package table

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guinote/internal/app"
	"guinote/internal/bot"
	"guinote/internal/domain"
	"guinote/internal/ports"
	"guinote/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.LoggedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events []ports.LoggedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func newManager(t *testing.T, seed int64) (*Manager, *store.MemoryStore, *recordingPublisher) {
	t.Helper()
	sessions := store.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := app.NewService(rand.New(rand.NewSource(seed)), nil).WithValidation(true)
	m := NewManager(svc, sessions, Options{
		Rules:     domain.DefaultRules(),
		Snapshots: sessions,
		Log:       sessions,
		Publisher: pub,
		BotLevel:  bot.BotLevelGood,
		RNG:       rand.New(rand.NewSource(seed)),
	})
	return m, sessions, pub
}

func TestCreateFillsSeatsWithBots(t *testing.T) {
	m, _, pub := newManager(t, 3)

	id, state, err := m.Create(context.Background(), []domain.Player{{ID: "human", Name: "Ana"}})
	require.NoError(t, err)

	assert.Equal(t, "human", state.Players[0].ID)
	for seat := 1; seat < 4; seat++ {
		assert.True(t, m.IsBot(id, state.Players[seat].ID), "seat %d should be a bot", seat)
	}
	assert.False(t, m.IsBot(id, "human"))
	// Seat 3 leads the first hand; the bots play until it is the human's turn.
	assert.Equal(t, 0, state.CurrentPlayer)
	assert.Len(t, state.CurrentTrick, 3)
	assert.NotEmpty(t, pub.events)
}

func TestCreateRejectsFullTable(t *testing.T) {
	m, _, _ := newManager(t, 1)
	players := []domain.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	_, _, err := m.Create(context.Background(), players)
	assert.ErrorIs(t, err, ErrTableFull)
}

func TestHumanPlaysAgainstBotsToTheEnd(t *testing.T) {
	ctx := context.Background()
	m, sessions, pub := newManager(t, 11)

	id, state, err := m.Create(ctx, []domain.Player{{ID: "human", Name: "Ana"}})
	require.NoError(t, err)

	for steps := 0; state.Phase != domain.PhaseGameOver; steps++ {
		require.Less(t, steps, 2000, "match did not finish")
		if state.Phase == domain.PhaseScoring {
			state, err = m.NextHand(ctx, id)
			require.NoError(t, err)
			continue
		}
		view, err := m.View(id, "human")
		require.NoError(t, err)
		require.Equal(t, 0, view.CurrentPlayer, "bots must hand the turn back to the human")
		require.NotEmpty(t, view.LegalCards)
		state, err = m.Play(ctx, id, "human", view.LegalCards[0])
		require.NoError(t, err)
	}

	logged, err := sessions.ListEvents(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, len(logged), len(pub.events))
	assert.Equal(t, app.EventMatchEnded, logged[len(logged)-1].Event.Kind)

	snap, err := sessions.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseGameOver, snap.Phase)
}

func TestEventsHidePrivateHands(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t, 5)
	id, _, err := m.Create(ctx, []domain.Player{{ID: "human"}})
	require.NoError(t, err)

	events, err := m.Events(ctx, id, "human", 0)
	require.NoError(t, err)
	dealt := 0
	for _, ev := range events {
		if ev.Event.Kind == app.EventHandDealt {
			dealt++
			assert.Equal(t, []string{"human"}, ev.Event.Recipients)
		}
	}
	assert.Equal(t, 1, dealt)

	later, err := m.Events(ctx, id, "human", events[len(events)-1].Seq)
	require.NoError(t, err)
	assert.Empty(t, later)
}

func TestRejectedMoveChangesNothing(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newManager(t, 2)
	id, before, err := m.Create(ctx, []domain.Player{{ID: "human"}})
	require.NoError(t, err)

	_, err = m.Play(ctx, id, "human", domain.Card{Suit: domain.Oros, Rank: 99})
	require.Error(t, err)
	after, err := m.View(id, "human")
	require.NoError(t, err)
	assert.Equal(t, len(before.CurrentTrick), len(after.CurrentTrick))

	_, err = m.Play(ctx, "nope", "human", before.Hands[0][0])
	assert.True(t, errors.Is(err, ErrGameNotFound))
}

func TestResumeFromSnapshot(t *testing.T) {
	ctx := context.Background()
	m, sessions, _ := newManager(t, 8)
	id, state, err := m.Create(ctx, []domain.Player{{ID: "human"}})
	require.NoError(t, err)
	seq := func() int64 {
		sess, ok := sessions.Get(id)
		require.True(t, ok)
		return sess.Seq()
	}()

	require.True(t, sessions.Delete(id))
	_, err = m.View(id, "human")
	require.ErrorIs(t, err, ErrGameNotFound)

	resumed, err := m.Resume(ctx, id)
	require.NoError(t, err)
	assert.True(t, domain.Equal(state, resumed))
	sess, ok := sessions.Get(id)
	require.True(t, ok)
	assert.Equal(t, seq, sess.Seq())
	for seat := 1; seat < 4; seat++ {
		assert.True(t, m.IsBot(id, state.Players[seat].ID))
	}

	_, err = m.Resume(ctx, "missing")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

// gatedSnapshots holds the first SaveSnapshot after arm until release is closed.
type gatedSnapshots struct {
	*store.MemoryStore
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSnapshots) SaveSnapshot(ctx context.Context, gameID string, snap domain.Snapshot) error {
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.MemoryStore.SaveSnapshot(ctx, gameID, snap)
}

func TestConcurrentMovesCommitInOrder(t *testing.T) {
	ctx := context.Background()
	sessions := store.NewMemoryStore()
	snaps := &gatedSnapshots{MemoryStore: sessions, entered: make(chan struct{}), release: make(chan struct{})}
	svc := app.NewService(rand.New(rand.NewSource(4)), nil)
	m := NewManager(svc, sessions, Options{
		Rules:     domain.DefaultRules(),
		Snapshots: snaps,
		Log:       sessions,
		RNG:       rand.New(rand.NewSource(4)),
	})

	humans := []domain.Player{{ID: "p0"}, {ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
	id, state, err := m.Create(ctx, humans)
	require.NoError(t, err)
	require.Equal(t, domain.PhasePlaying, state.Phase)

	// While the pile lasts any card is legal, so both moves are known up front.
	first := state.CurrentPlayer
	second := domain.NextSeat(first)
	firstCard, secondCard := state.Hands[first][0], state.Hands[second][0]

	snaps.armed.Store(true)
	firstDone := make(chan error, 1)
	go func() {
		_, err := m.Play(ctx, id, state.Players[first].ID, firstCard)
		firstDone <- err
	}()
	<-snaps.entered

	secondDone := make(chan error, 1)
	go func() {
		_, err := m.Play(ctx, id, state.Players[second].ID, secondCard)
		secondDone <- err
	}()
	select {
	case err := <-secondDone:
		t.Fatalf("second move finished while the first was still committing (err = %v)", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(snaps.release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)

	sess, ok := sessions.Get(id)
	require.True(t, ok)
	live := sess.State()
	require.Len(t, live.CurrentTrick, 2)

	snap, err := sessions.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	saved, err := domain.Decode(snap)
	require.NoError(t, err)
	assert.Equal(t, live.CurrentTrick, saved.CurrentTrick)

	logged, err := sessions.ListEvents(ctx, id, 0)
	require.NoError(t, err)
	require.NotEmpty(t, logged)
	for i, ev := range logged {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Equal(t, sess.Seq(), logged[len(logged)-1].Seq)
}
