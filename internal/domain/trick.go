package domain

// TrickResult is the outcome of resolving the cards on the table.
type TrickResult struct {
	Winner int
	Points int
}

// ResolveTrick picks the winning seat and sums the card points. The highest trump wins;
// without trumps the highest card of the led suit wins. Cards of any other suit never win.
// Partial tricks resolve to the currently winning card. An empty trick has no winner.
func ResolveTrick(cards []PlayedCard, trump Suit) TrickResult {
	if len(cards) == 0 {
		return TrickResult{Winner: NoSeat}
	}
	best := cards[0]
	total := 0
	for _, pc := range cards {
		total += pc.Card.Points()
		if beats(pc.Card, best.Card, trump) {
			best = pc
		}
	}
	return TrickResult{Winner: best.Seat, Points: total}
}

// beats reports whether challenger takes the trick from current, which is always
// either a led-suit card or a trump.
func beats(challenger, current Card, trump Suit) bool {
	if challenger.Suit == current.Suit {
		return challenger.Strength() > current.Strength()
	}
	return challenger.Suit == trump
}

// highestOfSuit returns the strength of the strongest card of suit on the table, or 0.
func highestOfSuit(cards []PlayedCard, suit Suit) int {
	best := 0
	for _, pc := range cards {
		if pc.Card.Suit == suit && pc.Card.Strength() > best {
			best = pc.Card.Strength()
		}
	}
	return best
}
