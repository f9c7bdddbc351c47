package brain

import (
	"guinote/internal/domain"
)

// CardStatus represents what the bot knows about a specific card.
type CardStatus int

const (
	StatusUnknown CardStatus = iota // In another hand or still in the pile
	StatusMine                      // In the bot's hand
	StatusPlayed                    // Already collected in a trick or on the table
	StatusExposed                   // The turned-up trump under the pile
)

// GameMemory stores the bot's private "view" of the hand.
type GameMemory struct {
	// DeckStatus tracks all 40 cards. Index = Suit*10 + rank position.
	DeckStatus [domain.DeckSize]CardStatus
}

// NewMemory initializes a fresh memory state.
func NewMemory() *GameMemory {
	return &GameMemory{}
}

// Reset clears the memory for a new hand.
func (m *GameMemory) Reset() {
	for i := range m.DeckStatus {
		m.DeckStatus[i] = StatusUnknown
	}
}

// Observe rebuilds the memory from everything seat can see in state.
func (m *GameMemory) Observe(state *domain.GameState, seat int) {
	m.Reset()
	for _, tricks := range state.TeamTricks {
		for _, t := range tricks {
			for _, pc := range t.Cards {
				m.DeckStatus[cardToIndex(pc.Card)] = StatusPlayed
			}
		}
	}
	for _, pc := range state.CurrentTrick {
		m.DeckStatus[cardToIndex(pc.Card)] = StatusPlayed
	}
	if len(state.DrawPile) > 0 && state.TrumpCard != nil {
		m.DeckStatus[cardToIndex(*state.TrumpCard)] = StatusExposed
	}
	m.MarkMine(state.Hands[seat])
}

// MarkMine records the cards currently in the bot's hand.
func (m *GameMemory) MarkMine(cards []domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusMine
	}
}

// MarkPlayed records cards that have left play.
func (m *GameMemory) MarkPlayed(cards []domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusPlayed
	}
}

func (m *GameMemory) Status(c domain.Card) CardStatus {
	return m.DeckStatus[cardToIndex(c)]
}

// IsBoss returns true if every stronger card of c's suit is either played or ours.
func (m *GameMemory) IsBoss(c domain.Card) bool {
	for _, rank := range domain.Ranks {
		other := domain.Card{Suit: c.Suit, Rank: rank}
		if other.Strength() <= c.Strength() {
			continue
		}
		switch m.Status(other) {
		case StatusUnknown, StatusExposed:
			return false
		}
	}
	return true
}

// Outstanding counts the cards of suit that may still be in another hand.
func (m *GameMemory) Outstanding(suit domain.Suit) int {
	n := 0
	for _, rank := range domain.Ranks {
		if m.Status(domain.Card{Suit: suit, Rank: rank}) == StatusUnknown {
			n++
		}
	}
	return n
}

// cardToIndex converts domain.Card to a 0-39 index.
func cardToIndex(c domain.Card) int {
	pos := c.Rank - 1
	if c.Rank >= domain.Sota {
		pos = c.Rank - 3
	}
	return int(c.Suit)*10 + pos
}
