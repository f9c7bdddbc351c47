// Package table hosts live games outside Nakama: it serializes moves per game, fills
// empty seats with bots, persists snapshots and event logs, and publishes events.
package table

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"guinote/internal/app"
	"guinote/internal/bot"
	"guinote/internal/domain"
	"guinote/internal/logging"
	"guinote/internal/ports"
	"guinote/internal/store"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrTableFull    = errors.New("too many players for one table")
)

type Options struct {
	Rules     domain.Rules
	Snapshots ports.SnapshotStore
	Log       ports.EventLog
	Publisher ports.EventPublisher
	Roster    *bot.Roster
	BotLevel  bot.BotLevel
	Logger    runtime.Logger
	RNG       *rand.Rand
}

// Manager runs games for the HTTP transport.
type Manager struct {
	svc      *app.Service
	sessions *store.MemoryStore
	opts     Options
	logger   runtime.Logger

	mu     sync.RWMutex
	agents map[string]map[string]*bot.Agent // game id -> player id -> agent
}

func NewManager(svc *app.Service, sessions *store.MemoryStore, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Roster == nil {
		opts.Roster = bot.DefaultRoster()
	}
	if opts.RNG == nil {
		opts.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Manager{
		svc:      svc,
		sessions: sessions,
		opts:     opts,
		logger:   opts.Logger,
		agents:   map[string]map[string]*bot.Agent{},
	}
}

// Create seats humans in order, fills the remaining seats with bots and deals the first
// hand. Bots that lead the first trick act before Create returns.
func (m *Manager) Create(ctx context.Context, humans []domain.Player) (string, *domain.GameState, error) {
	if len(humans) > app.SeatCount {
		return "", nil, ErrTableFull
	}
	players := append([]domain.Player(nil), humans...)
	agents := map[string]*bot.Agent{}
	taken := map[string]bool{}
	for _, p := range humans {
		taken[p.ID] = true
	}
	for len(players) < app.SeatCount {
		identity, ok := m.opts.Roster.PickFree(taken)
		if !ok {
			return "", nil, fmt.Errorf("fill seat %d: roster exhausted", len(players))
		}
		taken[identity.UserID] = true
		agent, err := bot.NewAgent(identity, m.opts.BotLevel, rand.New(rand.NewSource(m.seed())))
		if err != nil {
			return "", nil, err
		}
		agents[agent.ID] = agent
		players = append(players, domain.Player{ID: agent.ID, Name: agent.Name})
	}

	sess := m.sessions.Create(nil)
	m.setAgents(sess.ID, agents)
	_, _, err := sess.ApplyCommit(func(*domain.GameState) (*domain.GameState, []app.Event, error) {
		return m.svc.StartMatch(players, app.FirstDealer, m.opts.Rules)
	}, m.committer(ctx, sess.ID))
	if err != nil {
		m.sessions.Delete(sess.ID)
		m.setAgents(sess.ID, nil)
		return "", nil, err
	}
	state, err := m.advanceBots(ctx, sess)
	return sess.ID, state, err
}

// Play places card for playerID.
func (m *Manager) Play(ctx context.Context, gameID, playerID string, card domain.Card) (*domain.GameState, error) {
	return m.act(ctx, gameID, func(s *domain.GameState) (*domain.GameState, []app.Event, error) {
		return m.svc.PlayCard(s, playerID, card)
	})
}

// Meld sings the Rey+Sota of suit for playerID.
func (m *Manager) Meld(ctx context.Context, gameID, playerID string, suit domain.Suit) (*domain.GameState, error) {
	return m.act(ctx, gameID, func(s *domain.GameState) (*domain.GameState, []app.Event, error) {
		return m.svc.DeclareMeld(s, playerID, suit)
	})
}

// Exchange swaps playerID's 7 of trumps for the turned-up card.
func (m *Manager) Exchange(ctx context.Context, gameID, playerID string) (*domain.GameState, error) {
	return m.act(ctx, gameID, func(s *domain.GameState) (*domain.GameState, []app.Event, error) {
		return m.svc.ExchangeSeven(s, playerID)
	})
}

// NextHand deals the next hand after a scored one.
func (m *Manager) NextHand(ctx context.Context, gameID string) (*domain.GameState, error) {
	return m.act(ctx, gameID, m.svc.NextHand)
}

// View projects the game for playerID.
func (m *Manager) View(gameID, playerID string) (app.PlayerView, error) {
	sess, ok := m.sessions.Get(gameID)
	if !ok {
		return app.PlayerView{}, ErrGameNotFound
	}
	v := app.ViewFor(sess.State(), playerID)
	v.GameID = gameID
	return v, nil
}

// Events returns the logged events after afterSeq that playerID may see.
func (m *Manager) Events(ctx context.Context, gameID, playerID string, afterSeq int64) ([]ports.LoggedEvent, error) {
	if _, ok := m.sessions.Get(gameID); !ok {
		return nil, ErrGameNotFound
	}
	if m.opts.Log == nil {
		return nil, nil
	}
	all, err := m.opts.Log.ListEvents(ctx, gameID, afterSeq)
	if err != nil {
		return nil, err
	}
	out := make([]ports.LoggedEvent, 0, len(all))
	for _, ev := range all {
		if Visible(ev.Event, playerID) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Resume reloads a game from its latest snapshot, e.g. after a restart. Bot seats are
// rebuilt from the roster.
func (m *Manager) Resume(ctx context.Context, gameID string) (*domain.GameState, error) {
	if m.opts.Snapshots == nil {
		return nil, ErrGameNotFound
	}
	snap, err := m.opts.Snapshots.LoadSnapshot(ctx, gameID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	state, err := domain.Decode(snap)
	if err != nil {
		return nil, err
	}
	var seq int64
	if m.opts.Log != nil {
		events, err := m.opts.Log.ListEvents(ctx, gameID, 0)
		if err != nil {
			return nil, err
		}
		if n := len(events); n > 0 {
			seq = events[n-1].Seq
		}
	}
	agents := map[string]*bot.Agent{}
	for _, p := range state.Players {
		identity, ok := m.opts.Roster.Get(p.ID)
		if !ok {
			continue
		}
		agent, err := bot.NewAgent(identity, m.opts.BotLevel, rand.New(rand.NewSource(m.seed())))
		if err != nil {
			return nil, err
		}
		agents[agent.ID] = agent
	}
	m.sessions.Adopt(gameID, state, seq)
	m.setAgents(gameID, agents)
	return state.Clone(), nil
}

// IsBot reports whether playerID is a bot seated at gameID.
func (m *Manager) IsBot(gameID, playerID string) bool {
	_, ok := m.agentsOf(gameID)[playerID]
	return ok
}

// Visible reports whether ev may be shown to playerID.
func Visible(ev app.Event, playerID string) bool {
	if !ev.Private() {
		return true
	}
	for _, id := range ev.Recipients {
		if id == playerID {
			return true
		}
	}
	return false
}

func (m *Manager) act(ctx context.Context, gameID string, fn store.Transition) (*domain.GameState, error) {
	sess, ok := m.sessions.Get(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	state, _, err := sess.ApplyCommit(fn, m.committer(ctx, gameID))
	if err != nil {
		return nil, err
	}
	if next, err := m.advanceBots(ctx, sess); err == nil {
		state = next
	}
	return state, nil
}

// advanceBots lets seated bots act until a human is to play or the hand is over.
func (m *Manager) advanceBots(ctx context.Context, sess *store.Session) (*domain.GameState, error) {
	agents := m.agentsOf(sess.ID)
	for {
		var (
			agent *bot.Agent
			move  bot.Move
		)
		commit := m.committer(ctx, sess.ID)
		state, _, err := sess.ApplyCommit(func(s *domain.GameState) (*domain.GameState, []app.Event, error) {
			if !s.InPlay() {
				return s, nil, nil
			}
			agent = agents[s.Players[s.CurrentPlayer].ID]
			if agent == nil {
				return s, nil, nil
			}
			next, evs, mv, err := agent.Act(m.svc, s)
			move = mv
			return next, evs, err
		}, func(state *domain.GameState, logged []ports.LoggedEvent) {
			if agent != nil {
				commit(state, logged)
			}
		})
		if err != nil {
			m.logger.Error("bot %s in game %s failed to %s: %v", agent.ID, sess.ID, move.Kind, err)
			return nil, err
		}
		if agent == nil {
			return state, nil
		}
	}
}

func (m *Manager) seed() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts.RNG.Int63()
}

func (m *Manager) agentsOf(gameID string) map[string]*bot.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agents[gameID]
}

func (m *Manager) setAgents(gameID string, agents map[string]*bot.Agent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if agents == nil {
		delete(m.agents, gameID)
		return
	}
	m.agents[gameID] = agents
}

// committer returns the commit step for gameID. It runs under the session lock, so
// snapshots and events reach the stores in sequence order.
func (m *Manager) committer(ctx context.Context, gameID string) store.Commit {
	return func(state *domain.GameState, logged []ports.LoggedEvent) {
		m.commit(ctx, gameID, state, logged)
	}
}

// commit persists and publishes the outcome of one transition. Failures are logged;
// the transition itself has already happened.
func (m *Manager) commit(ctx context.Context, gameID string, state *domain.GameState, logged []ports.LoggedEvent) {
	if m.opts.Snapshots != nil {
		if err := m.opts.Snapshots.SaveSnapshot(ctx, gameID, domain.Encode(state)); err != nil {
			m.logger.Warn("save snapshot %s: %v", gameID, err)
		}
	}
	if len(logged) == 0 {
		return
	}
	if m.opts.Log != nil {
		if err := m.opts.Log.AppendEvents(ctx, logged); err != nil {
			m.logger.Warn("append events %s: %v", gameID, err)
		}
	}
	if m.opts.Publisher != nil {
		if err := m.opts.Publisher.Publish(ctx, logged); err != nil {
			m.logger.Warn("publish events %s: %v", gameID, err)
		}
	}
}
