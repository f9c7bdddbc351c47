package bot

import (
	"errors"
	"math/rand"

	"guinote/internal/domain"
)

var ErrNoLegalMove = errors.New("no legal move")

// RandomBot takes every exchange and meld it is offered and otherwise plays a random
// legal card.
type RandomBot struct {
	rng *rand.Rand
}

func (b *RandomBot) CalculateMove(state *domain.GameState, seat int) (Move, error) {
	if move, ok := bonusMove(state, seat); ok {
		return move, nil
	}
	legal := domain.LegalCards(state, state.Players[seat].ID)
	if len(legal) == 0 {
		return Move{}, ErrNoLegalMove
	}
	return Move{Kind: MovePlay, Card: legal[b.rng.Intn(len(legal))]}, nil
}

// bonusMove returns the exchange of the trump 7 or the best meld available to seat.
func bonusMove(state *domain.GameState, seat int) (Move, bool) {
	if canExchange(state, seat) {
		return Move{Kind: MoveExchange}, true
	}
	if suits := meldableSuits(state, seat); len(suits) > 0 {
		return Move{Kind: MoveMeld, Suit: suits[0]}, true
	}
	return Move{}, false
}

func canExchange(state *domain.GameState, seat int) bool {
	_, err := domain.ExchangeTrumpSeven(state, state.Players[seat].ID)
	return err == nil
}

// meldableSuits lists the suits seat may sing now, trumps first.
func meldableSuits(state *domain.GameState, seat int) []domain.Suit {
	id := state.Players[seat].ID
	var out []domain.Suit
	if _, err := domain.DeclareMeld(state, id, state.TrumpSuit); err == nil {
		out = append(out, state.TrumpSuit)
	}
	for _, suit := range domain.Suits {
		if suit == state.TrumpSuit {
			continue
		}
		if _, err := domain.DeclareMeld(state, id, suit); err == nil {
			out = append(out, suit)
		}
	}
	return out
}
