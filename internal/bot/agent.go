package bot

import (
	"errors"

	"guinote/internal/app"
	"guinote/internal/domain"
)

var ErrNotSeated = errors.New("bot is not seated in this game")

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// Play asks the agent to calculate its move based on the current game state.
func (a *Agent) Play(state *domain.GameState) (Move, error) {
	seat := state.SeatOf(a.ID)
	if seat == domain.NoSeat {
		return Move{}, ErrNotSeated
	}
	return a.Strategy.CalculateMove(state, seat)
}

// Act calculates the agent's move and applies it through svc.
func (a *Agent) Act(svc *app.Service, state *domain.GameState) (*domain.GameState, []app.Event, Move, error) {
	move, err := a.Play(state)
	if err != nil {
		return nil, nil, move, err
	}
	next, events, err := Apply(svc, state, a.ID, move)
	return next, events, move, err
}

// Apply runs move for playerID through the matching service use-case.
func Apply(svc *app.Service, state *domain.GameState, playerID string, move Move) (*domain.GameState, []app.Event, error) {
	switch move.Kind {
	case MoveMeld:
		return svc.DeclareMeld(state, playerID, move.Suit)
	case MoveExchange:
		return svc.ExchangeSeven(state, playerID)
	default:
		return svc.PlayCard(state, playerID, move.Card)
	}
}
