package domain

import (
	"fmt"
	"math/rand"
)

// CreateInitialGameState seats four players (in seat order) with the standard rules and
// returns a hand in the dealing phase holding the full, ordered deck.
func CreateInitialGameState(players []Player, dealer int) (*GameState, error) {
	return NewGame(players, dealer, DefaultRules())
}

// NewGame is CreateInitialGameState with explicit house rules.
func NewGame(players []Player, dealer int, rules Rules) (*GameState, error) {
	if len(players) != 4 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPlayers, len(players))
	}
	seen := make(map[string]bool, len(players))
	var seated [4]Player
	for i, p := range players {
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("%w: seat %d id %q", ErrInvalidPlayers, i, p.ID)
		}
		seen[p.ID] = true
		seated[i] = p
	}
	if dealer < 0 || dealer > 3 {
		return nil, fmt.Errorf("dealer %d: %w", dealer, ErrInvalidSeat)
	}
	s := newHand(seated, dealer, rules.withDefaults())
	s.HandNumber = 1
	return s, nil
}

func newHand(players [4]Player, dealer int, rules Rules) *GameState {
	s := &GameState{
		Phase:           PhaseDealing,
		Players:         players,
		DrawPile:        NewDeck(),
		Dealer:          dealer,
		CurrentPlayer:   NextSeat(dealer),
		LastTrickWinner: NoSeat,
		HandWinner:      NoSeat,
		MatchWinner:     NoSeat,
		Rules:           rules,
	}
	for i := range s.Players {
		s.Players[i].Seat = i
		s.Players[i].Team = i % 2
	}
	for t := range s.Teams {
		s.Teams[t] = Team{ID: t, Players: [2]string{players[t].ID, players[t+2].ID}}
	}
	return s
}

// ShufflePile shuffles the undealt deck of a hand in the dealing phase.
func ShufflePile(s *GameState, rng *rand.Rand) (*GameState, error) {
	if s.Phase != PhaseDealing {
		return nil, fmt.Errorf("shuffle: %w (%s)", ErrWrongPhase, s.Phase)
	}
	if len(s.DrawPile) != DeckSize {
		return nil, fmt.Errorf("shuffle: %w", ErrDeckNotFull)
	}
	next := s.Clone()
	next.DrawPile = ShuffleDeck(next.DrawPile, rng)
	return next, nil
}

// PlayCard places card from playerID's hand on the table. A fourth card resolves the
// trick, scores it, refills hands from the pile and decides whether the hand is over.
// Illegal plays return an error and no state.
func PlayCard(s *GameState, playerID string, card Card) (*GameState, error) {
	if err := Legality(s, playerID, card); err != nil {
		return nil, err
	}
	seat := s.CurrentPlayer
	next := s.Clone()
	next.Hands[seat] = RemoveCard(next.Hands[seat], card)
	next.CurrentTrick = append(next.CurrentTrick, PlayedCard{Seat: seat, Card: card})
	if len(next.CurrentTrick) < 4 {
		next.CurrentPlayer = NextSeat(seat)
		return next, nil
	}
	return completeTrick(next)
}

func completeTrick(s *GameState) (*GameState, error) {
	result := ResolveTrick(s.CurrentTrick, s.TrumpSuit)
	trick := Trick{Cards: s.CurrentTrick, Winner: result.Winner, Points: result.Points}
	s.CurrentTrick = nil

	next, err := ApplyTrickScoring(s, trick)
	if err != nil {
		return nil, err
	}
	next.LastTrickWinner = trick.Winner
	next.CurrentPlayer = trick.Winner
	next.MeldDeclared = false
	team := next.TeamOf(trick.Winner)

	if IsLastTrick(next) {
		final, err := ApplyLastTrickBonus(next, team)
		if err != nil {
			return nil, err
		}
		final.resolveHandEnd()
		return final, nil
	}
	if next.checkEarlyFinish(team) {
		return next, nil
	}
	next.drawAfterTrick(trick.Winner)
	return next, nil
}

// DeclareMeld sings the Rey+Sota of suit held by playerID. Only a member of the team that
// won the last trick may sing, before the next card is played, once per trick won and
// once per suit per hand.
func DeclareMeld(s *GameState, playerID string, suit Suit) (*GameState, error) {
	if !s.InPlay() {
		return nil, fmt.Errorf("meld: %w (%s)", ErrWrongPhase, s.Phase)
	}
	if !suit.Valid() {
		return nil, fmt.Errorf("meld: %w", ErrInvalidCard)
	}
	seat := s.SeatOf(playerID)
	if seat == NoSeat {
		return nil, ErrUnknownPlayer
	}
	team := s.TeamOf(seat)
	if team == NoSeat {
		return nil, ErrTeamNotFound
	}
	if s.LastTrickWinner == NoSeat || s.TeamOf(s.LastTrickWinner) != team || len(s.CurrentTrick) > 0 {
		return nil, ErrMeldNotAllowed
	}
	if s.MeldDeclared {
		return nil, ErrMeldAlreadyDeclared
	}
	for _, t := range s.Teams {
		for _, m := range t.Melds {
			if m.Suit == suit {
				return nil, fmt.Errorf("%w: %s", ErrMeldAlreadyDeclared, suit)
			}
		}
	}
	hand := s.Hands[seat]
	if !ContainsCard(hand, Card{Suit: suit, Rank: Rey}) || !ContainsCard(hand, Card{Suit: suit, Rank: Sota}) {
		return nil, ErrMeldCardsMissing
	}

	next := s.Clone()
	pts := MeldPoints(next, suit)
	next.Teams[team].Melds = append(next.Teams[team].Melds, Meld{Team: team, Suit: suit, Points: pts})
	next.Teams[team].Score += pts
	next.MeldDeclared = true
	next.checkEarlyFinish(team)
	return next, nil
}

// ExchangeTrumpSeven swaps the 7 of trumps in playerID's hand for the turned-up trump card.
// The player must be about to lead, their team must have won a trick, and the pile must
// still hold cards.
func ExchangeTrumpSeven(s *GameState, playerID string) (*GameState, error) {
	if s.Phase != PhasePlaying {
		return nil, fmt.Errorf("exchange: %w (%s)", ErrWrongPhase, s.Phase)
	}
	seat := s.SeatOf(playerID)
	if seat == NoSeat {
		return nil, ErrUnknownPlayer
	}
	team := s.TeamOf(seat)
	if team == NoSeat {
		return nil, ErrTeamNotFound
	}
	if seat != s.CurrentPlayer || len(s.CurrentTrick) > 0 || len(s.TeamTricks[team]) == 0 ||
		len(s.DrawPile) == 0 || s.TrumpCard == nil {
		return nil, ErrExchangeNotAllowed
	}
	seven := Card{Suit: s.TrumpSuit, Rank: Siete}
	if *s.TrumpCard == seven {
		return nil, ErrExchangeNotAllowed
	}
	if !ContainsCard(s.Hands[seat], seven) {
		return nil, ErrCardNotInHand
	}

	next := s.Clone()
	shown := next.DrawPile[0]
	next.Hands[seat] = append(RemoveCard(next.Hands[seat], seven), shown)
	next.DrawPile[0] = seven
	next.TrumpCard = &seven
	return next, nil
}

// StartNextHand builds the hand that follows a scored one. The deal passes
// counter-clockwise. A hand that ended without a partida winner is replayed as vueltas
// with the effective scores frozen as the baseline.
func StartNextHand(s *GameState) (*GameState, error) {
	if s.Phase == PhaseGameOver || s.MatchWinner != NoSeat {
		return nil, ErrMatchOver
	}
	if s.Phase != PhaseScoring {
		return nil, fmt.Errorf("next hand: %w (%s)", ErrWrongPhase, s.Phase)
	}
	next := newHand(s.Players, NextSeat(s.Dealer), s.Rules)
	next.Match = s.Match
	next.HandNumber = s.HandNumber + 1
	if s.HandWinner == NoSeat {
		next.IsVueltas = true
		for team := range s.Teams {
			next.Baseline.Score[team] = EffectiveScore(s, team)
			next.Baseline.CardPoints[team] = EffectiveCardPoints(s, team)
		}
	}
	return next, nil
}
