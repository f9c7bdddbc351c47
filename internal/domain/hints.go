package domain

// UIHints is a presentation-only projection describing what changed between two
// consecutive states: a trick that was just collected and the cards drawn afterwards.
// It is derived on demand and never stored in GameState.
type UIHints struct {
	// TrickWinner is the seat that took CompletedTrick, or NoSeat.
	TrickWinner    int          `json:"trick_winner"`
	CompletedTrick []PlayedCard `json:"completed_trick,omitempty"`
	Draws          []Draw       `json:"draws,omitempty"`
}

// Draw is a card a seat picked up from the pile.
type Draw struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// DeriveHints compares prev and next and reports the trick collected and the draws made
// by the transition, if any.
func DeriveHints(prev, next *GameState) UIHints {
	hints := UIHints{TrickWinner: NoSeat}
	if prev == nil || next == nil || next.HandNumber != prev.HandNumber || next.TrickCount <= prev.TrickCount {
		return hints
	}
	winner := next.LastTrickWinner
	team := next.TeamOf(winner)
	if team == NoSeat || len(next.TeamTricks[team]) == 0 {
		return hints
	}
	last := next.TeamTricks[team][len(next.TeamTricks[team])-1]
	hints.TrickWinner = winner
	hints.CompletedTrick = clonePlayed(last.Cards)

	for _, seat := range DrawOrder(winner) {
		for _, c := range next.Hands[seat] {
			if !ContainsCard(prev.Hands[seat], c) {
				hints.Draws = append(hints.Draws, Draw{Seat: seat, Card: c})
			}
		}
	}
	return hints
}
