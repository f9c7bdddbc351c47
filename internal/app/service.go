package app

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"guinote/internal/domain"
	"guinote/internal/logging"
)

// Service contains Guiñote use-cases operating on domain state. It holds no game state
// itself: every call takes the current state and returns the next one with the events
// the transition produced.
type Service struct {
	mu       sync.Mutex // guards rng
	rng      *rand.Rand
	logger   runtime.Logger
	validate bool
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand, logger runtime.Logger) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{rng: rng, logger: logger}
}

// WithValidation makes the service run the state validator after every transition.
// Violations are logged, never returned.
func (s *Service) WithValidation(on bool) *Service {
	s.validate = on
	return s
}

var (
	ErrNoGame        = errors.New("no game in progress")
	ErrTooFewPlayers = errors.New("not enough players to start")
)

// StartMatch seats the players in order, shuffles and deals the first hand.
func (s *Service) StartMatch(players []domain.Player, dealer int, rules domain.Rules) (*domain.GameState, []Event, error) {
	if len(players) < SeatCount {
		return nil, nil, ErrTooFewPlayers
	}
	state, err := domain.NewGame(players, dealer, rules)
	if err != nil {
		return nil, nil, err
	}
	return s.deal(state)
}

// NextHand starts the hand that follows a scored one.
func (s *Service) NextHand(state *domain.GameState) (*domain.GameState, []Event, error) {
	if state == nil {
		return nil, nil, ErrNoGame
	}
	fresh, err := domain.StartNextHand(state)
	if err != nil {
		return nil, nil, err
	}
	s.check(state, fresh)
	return s.deal(fresh)
}

func (s *Service) deal(state *domain.GameState) (*domain.GameState, []Event, error) {
	s.mu.Lock()
	shuffled, err := domain.ShufflePile(state, s.rng)
	s.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}
	next, err := domain.DealInitial(shuffled)
	if err != nil {
		return nil, nil, err
	}
	s.check(shuffled, next)

	events := make([]Event, 0, SeatCount+1)
	events = append(events, Event{
		Kind: EventHandStarted,
		Payload: HandStartedPayload{
			HandNumber:    next.HandNumber,
			Dealer:        next.Dealer,
			TrumpCard:     *next.TrumpCard,
			CurrentPlayer: next.CurrentPlayer,
			Vueltas:       next.IsVueltas,
			Baseline:      next.Baseline.Score,
			Match:         next.Match,
		},
	})
	for seat, p := range next.Players {
		events = append(events, Event{
			Kind: EventHandDealt,
			Payload: HandDealtPayload{
				PlayerID: p.ID,
				Seat:     seat,
				Hand:     append([]domain.Card(nil), next.Hands[seat]...),
			},
			Recipients: []string{p.ID},
		})
	}
	return next, events, nil
}

// PlayCard processes a play action and emits resulting events.
func (s *Service) PlayCard(state *domain.GameState, playerID string, card domain.Card) (*domain.GameState, []Event, error) {
	if state == nil {
		return nil, nil, ErrNoGame
	}
	seat := state.SeatOf(playerID)
	next, err := domain.PlayCard(state, playerID, card)
	if err != nil {
		if errors.Is(err, domain.ErrTeamNotFound) {
			s.logger.Warn("play %s by %s: %v; state left unchanged", card, playerID, err)
			return state, nil, nil
		}
		return nil, nil, err
	}
	s.check(state, next)

	events := []Event{{
		Kind: EventCardPlayed,
		Payload: CardPlayedPayload{
			PlayerID:      playerID,
			Seat:          seat,
			Card:          card,
			CurrentPlayer: next.CurrentPlayer,
		},
	}}

	hints := domain.DeriveHints(state, next)
	if hints.TrickWinner != domain.NoSeat {
		team := next.TeamOf(hints.TrickWinner)
		trick := next.TeamTricks[team][len(next.TeamTricks[team])-1]
		events = append(events, Event{
			Kind: EventTrickWon,
			Payload: TrickWonPayload{
				Winner:     hints.TrickWinner,
				Team:       team,
				Points:     trick.Points,
				Cards:      hints.CompletedTrick,
				TrickCount: next.TrickCount,
				Scores:     scores(next),
				PileSize:   len(next.DrawPile),
			},
		})
		events = append(events, drawEvents(next, hints.Draws)...)
	}
	if state.Phase == domain.PhasePlaying && next.Phase == domain.PhaseArrastre {
		events = append(events, Event{Kind: EventArrastreStarted})
	}
	events = append(events, endEvents(state, next)...)
	return next, events, nil
}

// DeclareMeld sings the Rey+Sota of suit for playerID's team.
func (s *Service) DeclareMeld(state *domain.GameState, playerID string, suit domain.Suit) (*domain.GameState, []Event, error) {
	if state == nil {
		return nil, nil, ErrNoGame
	}
	next, err := domain.DeclareMeld(state, playerID, suit)
	if err != nil {
		if errors.Is(err, domain.ErrTeamNotFound) {
			s.logger.Warn("meld %s by %s: %v; state left unchanged", suit, playerID, err)
			return state, nil, nil
		}
		return nil, nil, err
	}
	s.check(state, next)

	seat := next.SeatOf(playerID)
	team := next.TeamOf(seat)
	melds := next.Teams[team].Melds
	events := []Event{{
		Kind: EventMeldDeclared,
		Payload: MeldDeclaredPayload{
			PlayerID: playerID,
			Seat:     seat,
			Team:     team,
			Suit:     suit,
			Points:   melds[len(melds)-1].Points,
			Scores:   scores(next),
		},
	}}
	events = append(events, endEvents(state, next)...)
	return next, events, nil
}

// ExchangeSeven swaps the 7 of trumps for the turned-up trump card.
func (s *Service) ExchangeSeven(state *domain.GameState, playerID string) (*domain.GameState, []Event, error) {
	if state == nil {
		return nil, nil, ErrNoGame
	}
	next, err := domain.ExchangeTrumpSeven(state, playerID)
	if err != nil {
		if errors.Is(err, domain.ErrTeamNotFound) {
			s.logger.Warn("exchange by %s: %v; state left unchanged", playerID, err)
			return state, nil, nil
		}
		return nil, nil, err
	}
	s.check(state, next)

	return next, []Event{{
		Kind: EventSevenExchanged,
		Payload: SevenExchangedPayload{
			PlayerID:  playerID,
			Seat:      next.SeatOf(playerID),
			Taken:     state.DrawPile[0],
			TrumpCard: *next.TrumpCard,
		},
	}}, nil
}

// LegalCards lists the cards playerID may play now. It is empty when it is not their turn.
func (s *Service) LegalCards(state *domain.GameState, playerID string) []domain.Card {
	if state == nil {
		return nil
	}
	return domain.LegalCards(state, playerID)
}

func (s *Service) check(prev, next *domain.GameState) {
	if !s.validate {
		return
	}
	if res := domain.Validate(next); !res.Valid {
		s.logger.Error("state validation failed (hand %d): %s", next.HandNumber, strings.Join(res.Errors, "; "))
	}
	if res := domain.ValidateTransition(prev, next); !res.Valid {
		s.logger.Error("transition validation failed (hand %d): %s", next.HandNumber, strings.Join(res.Errors, "; "))
	}
}

func drawEvents(next *domain.GameState, draws []domain.Draw) []Event {
	bySeat := make(map[int][]domain.Card, SeatCount)
	for _, d := range draws {
		bySeat[d.Seat] = append(bySeat[d.Seat], d.Card)
	}
	events := make([]Event, 0, len(bySeat))
	for _, seat := range domain.DrawOrder(next.LastTrickWinner) {
		cards, ok := bySeat[seat]
		if !ok {
			continue
		}
		id := next.Players[seat].ID
		events = append(events, Event{
			Kind:       EventCardsDrawn,
			Payload:    CardsDrawnPayload{PlayerID: id, Seat: seat, Cards: cards},
			Recipients: []string{id},
		})
	}
	return events
}

// endEvents reports a hand that just ended and, when it settled the match, the match result.
func endEvents(prev, next *domain.GameState) []Event {
	if prev.InPlay() == next.InPlay() {
		return nil
	}
	events := []Event{{
		Kind: EventHandEnded,
		Payload: HandEndedPayload{
			HandNumber: next.HandNumber,
			Winner:     next.HandWinner,
			Scores:     scores(next),
			CardPoints: cardPoints(next),
			Vueltas:    next.IsVueltas,
			Match:      next.Match,
		},
	}}
	if next.Phase == domain.PhaseGameOver {
		events = append(events, Event{
			Kind:    EventMatchEnded,
			Payload: MatchEndedPayload{Winner: next.MatchWinner, Match: next.Match},
		})
	}
	return events
}

func scores(s *domain.GameState) [2]int {
	return [2]int{domain.EffectiveScore(s, 0), domain.EffectiveScore(s, 1)}
}

func cardPoints(s *domain.GameState) [2]int {
	return [2]int{domain.EffectiveCardPoints(s, 0), domain.EffectiveCardPoints(s, 1)}
}
