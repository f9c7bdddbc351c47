package app

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"

	"guinote/internal/domain"
)

// recordingLogger implements runtime.Logger and keeps warnings and errors.
type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Warn(format string, v ...interface{}) {
	l.warns = append(l.warns, fmt.Sprintf(format, v...))
}
func (l *recordingLogger) Error(format string, v ...interface{}) {
	l.errors = append(l.errors, fmt.Sprintf(format, v...))
}
func (l *recordingLogger) WithField(string, interface{}) runtime.Logger      { return l }
func (l *recordingLogger) WithFields(map[string]interface{}) runtime.Logger { return l }
func (l *recordingLogger) Fields() map[string]interface{}                   { return nil }

func players() []domain.Player {
	return []domain.Player{
		{ID: "u0", Name: "Ana"},
		{ID: "u1", Name: "Blas"},
		{ID: "u2", Name: "Carmen"},
		{ID: "u3", Name: "Dani"},
	}
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// orderedDeal deals the unshuffled deck with seat 0 dealing, so trump is copas-6 and
// seat 3 leads. Seat 0 gets copas-12 from seat 1 in exchange for espadas-11.
func orderedDeal(t *testing.T) *domain.GameState {
	t.Helper()
	s, err := domain.NewGame(players(), 0, domain.DefaultRules())
	if err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}
	s, err = domain.DealInitial(s)
	if err != nil {
		t.Fatalf("DealInitial() error = %v", err)
	}
	rey := domain.Card{Suit: domain.Copas, Rank: domain.Rey}
	caballo := domain.Card{Suit: domain.Espadas, Rank: domain.Caballo}
	s.Hands[0] = append(domain.RemoveCard(s.Hands[0], caballo), rey)
	s.Hands[1] = append(domain.RemoveCard(s.Hands[1], rey), caballo)
	return s
}

func TestStartMatchDealsHands(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(42)), nil)

	state, evs, err := svc.StartMatch(players(), FirstDealer, domain.DefaultRules())
	if err != nil {
		t.Fatalf("StartMatch() error = %v", err)
	}
	if state.Phase != domain.PhasePlaying {
		t.Fatalf("phase = %s, want playing", state.Phase)
	}
	if evs[0].Kind != EventHandStarted || evs[0].Private() {
		t.Fatalf("first event = %s (private %v), want public hand_started", evs[0].Kind, evs[0].Private())
	}
	started := evs[0].Payload.(HandStartedPayload)
	if started.TrumpCard != *state.TrumpCard || started.CurrentPlayer != 3 {
		t.Fatalf("hand_started = %+v, want trump %s and seat 3 leading", started, state.TrumpCard)
	}

	handEvents := 0
	for _, ev := range evs {
		if ev.Kind != EventHandDealt {
			continue
		}
		handEvents++
		payload := ev.Payload.(HandDealtPayload)
		if len(payload.Hand) != domain.HandSize {
			t.Fatalf("hand size = %d, want %d", len(payload.Hand), domain.HandSize)
		}
		if len(ev.Recipients) != 1 || ev.Recipients[0] != payload.PlayerID {
			t.Fatalf("recipients = %v, want only %s", ev.Recipients, payload.PlayerID)
		}
	}
	if handEvents != SeatCount {
		t.Fatalf("hand events = %d, want %d", handEvents, SeatCount)
	}
}

func TestStartMatchRejectsShortTable(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)), nil)
	if _, _, err := svc.StartMatch(players()[:3], FirstDealer, domain.DefaultRules()); !errors.Is(err, ErrTooFewPlayers) {
		t.Fatalf("StartMatch() error = %v, want %v", err, ErrTooFewPlayers)
	}
}

func TestPlayCardTrickEvents(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)), nil)
	state := orderedDeal(t)

	var all []Event
	for _, c := range []domain.Card{
		{Suit: domain.Bastos, Rank: domain.Sota},
		{Suit: domain.Espadas, Rank: domain.Tres},
		{Suit: domain.Bastos, Rank: 2},
		{Suit: domain.Copas, Rank: domain.Caballo},
	} {
		id := state.Players[state.CurrentPlayer].ID
		next, evs, err := svc.PlayCard(state, id, c)
		if err != nil {
			t.Fatalf("PlayCard(%s, %s) error = %v", id, c, err)
		}
		state = next
		all = append(all, evs...)
	}

	if got := countKind(all, EventCardPlayed); got != 4 {
		t.Fatalf("card_played events = %d, want 4", got)
	}
	if got := countKind(all, EventTrickWon); got != 1 {
		t.Fatalf("trick_won events = %d, want 1", got)
	}
	for _, ev := range all {
		switch p := ev.Payload.(type) {
		case TrickWonPayload:
			if p.Winner != 0 || p.Team != 0 || p.Points != 15 || p.Scores != [2]int{15, 0} {
				t.Fatalf("trick_won = %+v, want seat 0 taking 15", p)
			}
			if p.PileSize != domain.DeckSize-4*domain.HandSize-4 {
				t.Fatalf("pile size = %d, want %d", p.PileSize, domain.DeckSize-4*domain.HandSize-4)
			}
		case CardsDrawnPayload:
			if len(ev.Recipients) != 1 || ev.Recipients[0] != p.PlayerID || len(p.Cards) != 1 {
				t.Fatalf("cards_drawn = %+v to %v, want one private card", p, ev.Recipients)
			}
		}
	}
	if got := countKind(all, EventCardsDrawn); got != 4 {
		t.Fatalf("cards_drawn events = %d, want 4", got)
	}
}

func TestMeldAndExchangeEvents(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)), nil)
	state := orderedDeal(t)
	for _, c := range []domain.Card{
		{Suit: domain.Bastos, Rank: domain.Sota},
		{Suit: domain.Espadas, Rank: domain.Tres},
		{Suit: domain.Bastos, Rank: 2},
		{Suit: domain.Copas, Rank: domain.Caballo},
	} {
		next, _, err := svc.PlayCard(state, state.Players[state.CurrentPlayer].ID, c)
		if err != nil {
			t.Fatalf("PlayCard(%s) error = %v", c, err)
		}
		state = next
	}

	state, evs, err := svc.DeclareMeld(state, "u0", domain.Copas)
	if err != nil {
		t.Fatalf("DeclareMeld() error = %v", err)
	}
	meld := evs[0].Payload.(MeldDeclaredPayload)
	if evs[0].Kind != EventMeldDeclared || meld.Points != domain.DefaultTrumpMeldPoints || meld.Scores[0] != 55 {
		t.Fatalf("meld event = %s %+v, want 40 points and score 55", evs[0].Kind, meld)
	}

	if _, _, err := svc.DeclareMeld(state, "u2", domain.Oros); !errors.Is(err, domain.ErrMeldAlreadyDeclared) {
		t.Fatalf("second DeclareMeld() error = %v, want %v", err, domain.ErrMeldAlreadyDeclared)
	}

	state, evs, err = svc.ExchangeSeven(state, "u0")
	if err != nil {
		t.Fatalf("ExchangeSeven() error = %v", err)
	}
	ex := evs[0].Payload.(SevenExchangedPayload)
	six := domain.Card{Suit: domain.Copas, Rank: 6}
	seven := domain.Card{Suit: domain.Copas, Rank: domain.Siete}
	if ex.Taken != six || ex.TrumpCard != seven || *state.TrumpCard != seven {
		t.Fatalf("exchange = %+v, want taken %s and trump %s", ex, six, seven)
	}
}

func TestTeamLookupFailureLeavesStateUnchanged(t *testing.T) {
	logger := &recordingLogger{}
	svc := NewService(rand.New(rand.NewSource(1)), logger)
	state := orderedDeal(t)
	state.Teams[0].Players[0] = "ghost"

	next, evs, err := svc.DeclareMeld(state, "u0", domain.Copas)
	if err != nil {
		t.Fatalf("DeclareMeld() error = %v, want nil", err)
	}
	if next != state || len(evs) != 0 {
		t.Fatalf("DeclareMeld() = %p with %d events, want input state and no events", next, len(evs))
	}
	if len(logger.warns) != 1 {
		t.Fatalf("warnings = %v, want one", logger.warns)
	}
}

func TestPlayCardRejectsOutOfTurn(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)), nil)
	state := orderedDeal(t)

	next, evs, err := svc.PlayCard(state, "u0", state.Hands[0][0])
	if !errors.Is(err, domain.ErrNotYourTurn) || next != nil || evs != nil {
		t.Fatalf("PlayCard() = %v, %v, %v; want nil, nil, %v", next, evs, err, domain.ErrNotYourTurn)
	}
	if _, _, err := svc.PlayCard(nil, "u0", state.Hands[0][0]); !errors.Is(err, ErrNoGame) {
		t.Fatalf("PlayCard(nil) error = %v, want %v", err, ErrNoGame)
	}
}

func TestFullMatchEventsAndValidation(t *testing.T) {
	logger := &recordingLogger{}
	svc := NewService(rand.New(rand.NewSource(7)), logger).WithValidation(true)

	state, all, err := svc.StartMatch(players(), FirstDealer, domain.DefaultRules())
	if err != nil {
		t.Fatalf("StartMatch() error = %v", err)
	}
	for steps := 0; state.Phase != domain.PhaseGameOver; steps++ {
		if steps > 5000 {
			t.Fatalf("match did not finish")
		}
		var evs []Event
		if state.Phase == domain.PhaseScoring {
			state, evs, err = svc.NextHand(state)
		} else {
			id := state.Players[state.CurrentPlayer].ID
			legal := svc.LegalCards(state, id)
			if len(legal) == 0 {
				t.Fatalf("no legal cards for %s in %s", id, state.Phase)
			}
			state, evs, err = svc.PlayCard(state, id, legal[0])
		}
		if err != nil {
			t.Fatalf("step %d error = %v", steps, err)
		}
		all = append(all, evs...)
	}

	if len(logger.errors) != 0 {
		t.Fatalf("validation errors = %v", logger.errors)
	}
	if got := countKind(all, EventHandStarted); got != state.HandNumber {
		t.Fatalf("hand_started = %d, want %d", got, state.HandNumber)
	}
	if got := countKind(all, EventHandEnded); got != state.HandNumber {
		t.Fatalf("hand_ended = %d, want %d", got, state.HandNumber)
	}
	if got := countKind(all, EventMatchEnded); got != 1 || all[len(all)-1].Kind != EventMatchEnded {
		t.Fatalf("match_ended = %d (last %s), want exactly one at the end", got, all[len(all)-1].Kind)
	}
	end := all[len(all)-1].Payload.(MatchEndedPayload)
	if end.Winner != state.MatchWinner || end.Match.Cotos[end.Winner] != domain.DefaultCotosPerMatch {
		t.Fatalf("match_ended = %+v, want winner %d with %d cotos", end, state.MatchWinner, domain.DefaultCotosPerMatch)
	}
	if _, _, err := svc.NextHand(state); !errors.Is(err, domain.ErrMatchOver) {
		t.Fatalf("NextHand() after match error = %v, want %v", err, domain.ErrMatchOver)
	}
}
