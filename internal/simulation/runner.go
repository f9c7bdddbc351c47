// Package simulation plays whole matches between bots and checks every state the
// engine produces along the way.
package simulation

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"guinote/internal/app"
	"guinote/internal/bot"
	"guinote/internal/domain"
	"guinote/internal/logging"
)

// DefaultMaxMoves bounds a single match. A real match needs a few thousand moves at most.
const DefaultMaxMoves = 20000

// Options configures a batch. Levels holds the bot strategy of each team.
type Options struct {
	Rules    domain.Rules
	Levels   [2]bot.BotLevel
	MaxMoves int
}

// MatchResult is the outcome of one simulated match.
type MatchResult struct {
	SimID      int
	Seed       int64
	Winner     int // team, or domain.NoSeat when the match did not finish
	Hands      int
	Vueltas    int // hands played as vueltas
	Moves      int
	Melds      int
	Exchanges  int
	DurationNs int64
	Violations []string
	Error      string
}

// AggregatedStats summarizes a batch.
type AggregatedStats struct {
	TotalMatches  int
	Team0Wins     int
	Team1Wins     int
	Errors        int
	Violations    int
	AvgHands      float64
	MedianHands   float64
	AvgMoves      float64
	VueltasRate   float64 // share of hands played as vueltas
	MeldsPerHand  float64
	AvgDurationNs int64
	// FirstProblem describes the first failing match by SimID, for reproduction.
	FirstProblem string
}

// OK reports whether every match finished without errors or invariant violations.
func (s AggregatedStats) OK() bool {
	return s.Errors == 0 && s.Violations == 0
}

func (o Options) withDefaults() Options {
	if o.Rules == (domain.Rules{}) {
		o.Rules = domain.DefaultRules()
	}
	if o.MaxMoves <= 0 {
		o.MaxMoves = DefaultMaxMoves
	}
	return o
}

// RunMatch plays one match with seed. The same seed and options always give the
// same result.
func RunMatch(opts Options, simID int, seed int64) (result MatchResult) {
	opts = opts.withDefaults()
	start := time.Now()
	result = MatchResult{SimID: simID, Seed: seed, Winner: domain.NoSeat}
	defer func() {
		result.DurationNs = time.Since(start).Nanoseconds()
	}()

	rng := rand.New(rand.NewSource(seed))
	svc := app.NewService(rand.New(rand.NewSource(rng.Int63())), logging.Nop())

	players := make([]domain.Player, app.SeatCount)
	agents := make([]*bot.Agent, app.SeatCount)
	for seat := range players {
		id := fmt.Sprintf("sim-%d", seat)
		brain, err := bot.NewBrain(opts.Levels[seat%2], rand.New(rand.NewSource(rng.Int63())))
		if err != nil {
			result.Error = err.Error()
			return result
		}
		players[seat] = domain.Player{ID: id, Name: id}
		agents[seat] = &bot.Agent{ID: id, Name: id, Strategy: brain}
	}

	state, events, err := svc.StartMatch(players, app.FirstDealer, opts.Rules)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.count(events)
	result.check(nil, state)

	for state.Phase != domain.PhaseGameOver {
		if result.Moves >= opts.MaxMoves {
			result.Error = fmt.Sprintf("no winner after %d moves", result.Moves)
			return result
		}
		var (
			next *domain.GameState
			move bot.Move
		)
		from := state
		switch {
		case state.Phase == domain.PhaseScoring:
			// The service shuffles and deals in the same call, so the scoring -> dealing
			// step is rebuilt here and checked on its own.
			if from, err = domain.StartNextHand(state); err == nil {
				result.check(state, from)
				next, events, err = svc.NextHand(state)
			}
		case !state.InPlay():
			result.Error = fmt.Sprintf("stuck in phase %s", state.Phase)
			return result
		default:
			next, events, move, err = agents[state.CurrentPlayer].Act(svc, state)
			result.Moves++
			switch move.Kind {
			case bot.MoveMeld:
				result.Melds++
			case bot.MoveExchange:
				result.Exchanges++
			}
		}
		if err != nil {
			result.Error = fmt.Sprintf("move %d (%s, phase %s): %v", result.Moves, move.Kind, state.Phase, err)
			return result
		}
		result.count(events)
		result.check(from, next)
		state = next
	}
	result.Winner = state.MatchWinner
	return result
}

func (r *MatchResult) count(events []app.Event) {
	for _, ev := range events {
		if p, ok := ev.Payload.(app.HandStartedPayload); ok {
			r.Hands++
			if p.Vueltas {
				r.Vueltas++
			}
		}
	}
}

func (r *MatchResult) check(prev, next *domain.GameState) {
	if res := domain.Validate(next); !res.Valid {
		r.Violations = append(r.Violations, res.Errors...)
	}
	if prev == nil {
		return
	}
	if res := domain.ValidateTransition(prev, next); !res.Valid {
		r.Violations = append(r.Violations, res.Errors...)
	}
}

// RunBatch plays numMatches sequentially. Match seeds come from seed.
func RunBatch(opts Options, numMatches int, seed int64) AggregatedStats {
	rng := rand.New(rand.NewSource(seed))
	results := make([]MatchResult, numMatches)
	for i := range results {
		results[i] = RunMatch(opts, i, rng.Int63())
	}
	return aggregateResults(results)
}

func aggregateResults(results []MatchResult) AggregatedStats {
	sort.Slice(results, func(i, j int) bool { return results[i].SimID < results[j].SimID })

	stats := AggregatedStats{TotalMatches: len(results)}
	var (
		hands     []int
		moves     int
		vueltas   int
		melds     int
		totalTime int64
	)
	for _, r := range results {
		totalTime += r.DurationNs
		stats.Violations += len(r.Violations)
		if (r.Error != "" || len(r.Violations) > 0) && stats.FirstProblem == "" {
			stats.FirstProblem = describe(r)
		}
		if r.Error != "" {
			stats.Errors++
			continue
		}
		switch r.Winner {
		case 0:
			stats.Team0Wins++
		case 1:
			stats.Team1Wins++
		}
		hands = append(hands, r.Hands)
		moves += r.Moves
		vueltas += r.Vueltas
		melds += r.Melds
	}

	if n := len(hands); n > 0 {
		total := 0
		for _, h := range hands {
			total += h
		}
		sort.Ints(hands)
		stats.MedianHands = float64(hands[n/2])
		if n%2 == 0 {
			stats.MedianHands = float64(hands[n/2-1]+hands[n/2]) / 2
		}
		stats.AvgHands = float64(total) / float64(n)
		stats.AvgMoves = float64(moves) / float64(n)
		if total > 0 {
			stats.VueltasRate = float64(vueltas) / float64(total)
			stats.MeldsPerHand = float64(melds) / float64(total)
		}
	}
	if len(results) > 0 {
		stats.AvgDurationNs = totalTime / int64(len(results))
	}
	return stats
}

func describe(r MatchResult) string {
	if r.Error != "" {
		return fmt.Sprintf("sim %d (seed %d): %s", r.SimID, r.Seed, r.Error)
	}
	return fmt.Sprintf("sim %d (seed %d): %s", r.SimID, r.Seed, r.Violations[0])
}
