package domain

import "fmt"

// InitialDealRounds and CardsPerRound describe the opening deal: two rounds of three.
const (
	InitialDealRounds = 2
	CardsPerRound     = 3
)

// DealingOrder returns the seats in dealing order for dealer: counter-clockwise,
// starting right of the dealer and ending with the dealer.
func DealingOrder(dealer int) [4]int {
	var order [4]int
	seat := dealer
	for i := range order {
		seat = NextSeat(seat)
		order[i] = seat
	}
	return order
}

// DrawOrder returns the post-trick draw order: the winner first, then counter-clockwise.
func DrawOrder(winner int) [4]int {
	order := [4]int{winner}
	for i := 1; i < len(order); i++ {
		order[i] = NextSeat(order[i-1])
	}
	return order
}

// DealInitial deals two rounds of three cards from the top of the pile, turns up the
// next card as trump and slides it under the pile. The hand moves to playing and the
// player right of the dealer leads.
func DealInitial(s *GameState) (*GameState, error) {
	if s.Phase != PhaseDealing {
		return nil, fmt.Errorf("deal: %w (%s)", ErrWrongPhase, s.Phase)
	}
	if len(s.DrawPile) != DeckSize {
		return nil, fmt.Errorf("deal: %w (%d cards)", ErrDeckNotFull, len(s.DrawPile))
	}

	next := s.Clone()
	for round := 0; round < InitialDealRounds; round++ {
		for _, seat := range DealingOrder(next.Dealer) {
			for i := 0; i < CardsPerRound; i++ {
				next.Hands[seat] = append(next.Hands[seat], next.popTop())
			}
		}
	}

	trump := next.popTop()
	next.DrawPile = append([]Card{trump}, next.DrawPile...)
	next.TrumpCard = &trump
	next.TrumpSuit = trump.Suit
	next.CurrentPlayer = NextSeat(next.Dealer)
	next.Phase = PhasePlaying
	return next, nil
}

// drawAfterTrick refills hands one card each in DrawOrder(winner) while the pile lasts.
// When the pile runs out the hand enters arrastre.
func (s *GameState) drawAfterTrick(winner int) {
	if len(s.DrawPile) == 0 {
		return
	}
	for _, seat := range DrawOrder(winner) {
		if len(s.DrawPile) == 0 {
			break
		}
		s.Hands[seat] = append(s.Hands[seat], s.popTop())
	}
	if len(s.DrawPile) == 0 && s.Phase == PhasePlaying {
		s.Phase = PhaseArrastre
	}
}

// popTop removes and returns the top card of the pile. Callers check the length.
func (s *GameState) popTop() Card {
	top := s.DrawPile[len(s.DrawPile)-1]
	s.DrawPile = s.DrawPile[:len(s.DrawPile)-1]
	return top
}
