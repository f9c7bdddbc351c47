package domain

import "fmt"

// Legality explains why playerID may not play card, or returns nil when the play is legal.
//
// While the pile lasts any card in hand may be played. In arrastre the player must follow
// the led suit, beating the best led-suit card when able unless the partner is winning;
// a player void in the led suit must trump, overtrumping when able; a player holding
// neither may play anything.
func Legality(s *GameState, playerID string, card Card) error {
	if !s.InPlay() {
		return fmt.Errorf("%w (%s)", ErrWrongPhase, s.Phase)
	}
	seat := s.SeatOf(playerID)
	if seat == NoSeat {
		return ErrUnknownPlayer
	}
	if seat != s.CurrentPlayer {
		return ErrNotYourTurn
	}
	hand := s.Hands[seat]
	if !ContainsCard(hand, card) {
		return ErrCardNotInHand
	}
	if s.Phase == PhasePlaying || len(s.CurrentTrick) == 0 {
		return nil
	}

	led := s.CurrentTrick[0].Card.Suit
	if following := CardsOfSuit(hand, led); len(following) > 0 {
		if card.Suit != led {
			return ErrMustFollowSuit
		}
		if ResolveTrick(s.CurrentTrick, s.TrumpSuit).Winner == PartnerSeat(seat) {
			return nil
		}
		best := highestOfSuit(s.CurrentTrick, led)
		if len(strongerThan(following, best)) > 0 && card.Strength() <= best {
			return ErrMustBeat
		}
		return nil
	}

	trumps := CardsOfSuit(hand, s.TrumpSuit)
	if len(trumps) == 0 {
		return nil
	}
	if card.Suit != s.TrumpSuit {
		return ErrMustTrump
	}
	best := highestOfSuit(s.CurrentTrick, s.TrumpSuit)
	if len(strongerThan(trumps, best)) > 0 && card.Strength() <= best {
		return ErrMustBeat
	}
	return nil
}

// IsLegal reports whether playerID may play card now.
func IsLegal(s *GameState, playerID string, card Card) bool {
	return Legality(s, playerID, card) == nil
}

// LegalCards lists the cards playerID may play now, in hand order.
func LegalCards(s *GameState, playerID string) []Card {
	seat := s.SeatOf(playerID)
	if seat == NoSeat {
		return nil
	}
	var out []Card
	for _, c := range s.Hands[seat] {
		if IsLegal(s, playerID, c) {
			out = append(out, c)
		}
	}
	return out
}
