package domain

import (
	"math/rand"
	"testing"
)

func card(suit Suit, rank int) Card { return Card{Suit: suit, Rank: rank} }

func testPlayers() []Player {
	return []Player{
		{ID: "p0", Name: "Ana"},
		{ID: "p1", Name: "Blas"},
		{ID: "p2", Name: "Carmen"},
		{ID: "p3", Name: "Dani"},
	}
}

// dealtGame deals the unshuffled deck with seat 0 dealing. The resulting hands are:
//
//	seat 0: bastos-1 espadas-12 espadas-11 copas-11 copas-10 copas-7
//	seat 1: bastos-4 bastos-3 bastos-2 espadas-2 espadas-1 copas-12
//	seat 2: bastos-7 bastos-6 bastos-5 espadas-5 espadas-4 espadas-3
//	seat 3: bastos-12 bastos-11 bastos-10 espadas-10 espadas-7 espadas-6
//
// Trump is copas-6 and seat 3 leads.
func dealtGame(t *testing.T) *GameState {
	t.Helper()
	s, err := CreateInitialGameState(testPlayers(), 0)
	if err != nil {
		t.Fatalf("CreateInitialGameState() error = %v", err)
	}
	s, err = DealInitial(s)
	if err != nil {
		t.Fatalf("DealInitial() error = %v", err)
	}
	return s
}

// play applies the given cards in turn order, failing the test on any rejection.
func play(t *testing.T, s *GameState, cards ...Card) *GameState {
	t.Helper()
	for _, c := range cards {
		id := s.Players[s.CurrentPlayer].ID
		next, err := PlayCard(s, id, c)
		if err != nil {
			t.Fatalf("PlayCard(%s, %s) error = %v", id, c.ID(), err)
		}
		s = next
	}
	return s
}

// arrastreState builds a table where seat 0 is to play hand against trick with oros as trump.
func arrastreState(t *testing.T, trick []PlayedCard, hand []Card) *GameState {
	t.Helper()
	s, err := CreateInitialGameState(testPlayers(), 1)
	if err != nil {
		t.Fatalf("CreateInitialGameState() error = %v", err)
	}
	trump := card(Oros, 6)
	s.Phase = PhaseArrastre
	s.DrawPile = nil
	s.TrumpSuit = Oros
	s.TrumpCard = &trump
	s.CurrentTrick = trick
	s.Hands[0] = hand
	s.CurrentPlayer = 0
	return s
}

// randomPlayout drives a full match with uniformly random legal actions, calling check
// on every consecutive pair of states.
func randomPlayout(t *testing.T, seed int64, check func(prev, next *GameState)) *GameState {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	s, err := CreateInitialGameState(testPlayers(), int(seed%4))
	if err != nil {
		t.Fatalf("CreateInitialGameState() error = %v", err)
	}
	step := func(next *GameState) {
		check(s, next)
		s = next
	}

	for i := 0; i < 10000; i++ {
		switch {
		case s.Phase == PhaseGameOver:
			return s
		case s.Phase == PhaseScoring:
			next, err := StartNextHand(s)
			if err != nil {
				t.Fatalf("StartNextHand() error = %v", err)
			}
			step(next)
		case s.Phase == PhaseDealing:
			shuffled, err := ShufflePile(s, rng)
			if err != nil {
				t.Fatalf("ShufflePile() error = %v", err)
			}
			step(shuffled)
			dealt, err := DealInitial(s)
			if err != nil {
				t.Fatalf("DealInitial() error = %v", err)
			}
			step(dealt)
		default:
			id := s.Players[s.CurrentPlayer].ID
			if len(s.CurrentTrick) == 0 {
				if next, err := ExchangeTrumpSeven(s, id); err == nil {
					step(next)
				}
				for _, suit := range Suits {
					if next, err := DeclareMeld(s, id, suit); err == nil {
						step(next)
						break
					}
				}
				if !s.InPlay() {
					continue
				}
			}
			legal := LegalCards(s, id)
			if len(legal) == 0 {
				t.Fatalf("no legal cards for %s in %s", id, s.Phase)
			}
			next, err := PlayCard(s, id, legal[rng.Intn(len(legal))])
			if err != nil {
				t.Fatalf("PlayCard() error = %v", err)
			}
			step(next)
		}
	}
	t.Fatalf("match did not finish")
	return nil
}
