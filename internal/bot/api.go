package bot

import (
	"guinote/internal/domain"
)

// MoveKind is the action a bot chose.
type MoveKind int

const (
	MovePlay MoveKind = iota
	MoveMeld
	MoveExchange
)

func (k MoveKind) String() string {
	switch k {
	case MoveMeld:
		return "meld"
	case MoveExchange:
		return "exchange"
	default:
		return "play"
	}
}

// Move represents the decision made by the AI.
type Move struct {
	Kind MoveKind
	Card domain.Card // MovePlay
	Suit domain.Suit // MoveMeld
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	CalculateMove(state *domain.GameState, seat int) (Move, error)
}
