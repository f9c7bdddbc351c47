package domain

// ContainsCard reports whether cards holds c.
func ContainsCard(cards []Card, c Card) bool {
	for _, card := range cards {
		if card == c {
			return true
		}
	}
	return false
}

// RemoveCard returns a copy of hand without the first occurrence of c.
func RemoveCard(hand []Card, c Card) []Card {
	out := make([]Card, 0, len(hand))
	removed := false
	for _, card := range hand {
		if !removed && card == c {
			removed = true
			continue
		}
		out = append(out, card)
	}
	return out
}

// CardsOfSuit returns the cards of the given suit, in hand order.
func CardsOfSuit(cards []Card, suit Suit) []Card {
	var out []Card
	for _, c := range cards {
		if c.Suit == suit {
			out = append(out, c)
		}
	}
	return out
}

// strongerThan filters cards whose strength exceeds min.
func strongerThan(cards []Card, floor int) []Card {
	var out []Card
	for _, c := range cards {
		if c.Strength() > floor {
			out = append(out, c)
		}
	}
	return out
}

// NextSeat returns the seat that plays after seat. Play runs counter-clockwise.
func NextSeat(seat int) int {
	return (seat + 3) % 4
}

// PartnerSeat returns the seat sitting opposite seat.
func PartnerSeat(seat int) int {
	return (seat + 2) % 4
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

func clonePlayed(cards []PlayedCard) []PlayedCard {
	if cards == nil {
		return nil
	}
	out := make([]PlayedCard, len(cards))
	copy(out, cards)
	return out
}

func cloneTricks(tricks []Trick) []Trick {
	if tricks == nil {
		return nil
	}
	out := make([]Trick, len(tricks))
	for i, t := range tricks {
		out[i] = Trick{Cards: clonePlayed(t.Cards), Winner: t.Winner, Points: t.Points}
	}
	return out
}
