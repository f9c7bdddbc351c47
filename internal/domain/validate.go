package domain

import "fmt"

// ValidationResult lists every structural violation found in a state.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

type violations []string

func (v *violations) addf(format string, args ...interface{}) {
	*v = append(*v, fmt.Sprintf(format, args...))
}

func (v violations) result() ValidationResult {
	return ValidationResult{Valid: len(v) == 0, Errors: v}
}

// Validate checks the structural invariants of s: seating and teams, card conservation
// and uniqueness, phase/pile consistency, trick size, card-point ceiling and trump identity.
// It is a test and development oracle only.
func Validate(s *GameState) ValidationResult {
	var v violations
	if s == nil {
		v.addf("state is nil")
		return v.result()
	}
	validateSeating(s, &v)
	validateCards(s, &v)
	validatePhase(s, &v)
	validateScores(s, &v)
	return v.result()
}

func validateSeating(s *GameState, v *violations) {
	ids := make(map[string]int, 4)
	for i, p := range s.Players {
		if p.ID == "" {
			v.addf("seat %d has no player", i)
			continue
		}
		if prev, dup := ids[p.ID]; dup {
			v.addf("player %s seated at %d and %d", p.ID, prev, i)
		}
		ids[p.ID] = i
		if p.Seat != i {
			v.addf("player %s at index %d claims seat %d", p.ID, i, p.Seat)
		}
		if p.Team != i%2 {
			v.addf("player %s at seat %d claims team %d", p.ID, i, p.Team)
		}
	}
	members := 0
	for t, team := range s.Teams {
		if team.ID != t {
			v.addf("team at index %d has id %d", t, team.ID)
		}
		for _, id := range team.Players {
			seat, ok := ids[id]
			if !ok {
				v.addf("team %d lists unknown player %q", t, id)
				continue
			}
			if seat%2 != t {
				v.addf("team %d lists player %s from seat %d", t, id, seat)
			}
			members++
		}
	}
	if members != 4 {
		v.addf("teams seat %d players, want 4", members)
	}
	for _, seat := range []int{s.CurrentPlayer, s.Dealer} {
		if seat < 0 || seat > 3 {
			v.addf("seat index %d out of range", seat)
		}
	}
	if s.LastTrickWinner < NoSeat || s.LastTrickWinner > 3 {
		v.addf("last trick winner %d out of range", s.LastTrickWinner)
	}
}

func validateCards(s *GameState, v *violations) {
	seen := make(map[Card]string, DeckSize)
	count := 0
	track := func(c Card, where string) {
		count++
		if !c.Valid() {
			v.addf("invalid card %v in %s", c, where)
			return
		}
		if prev, dup := seen[c]; dup {
			v.addf("card %s in both %s and %s", c.ID(), prev, where)
			return
		}
		seen[c] = where
	}

	for _, c := range s.DrawPile {
		track(c, "draw pile")
	}
	for seat, hand := range s.Hands {
		for _, c := range hand {
			track(c, fmt.Sprintf("hand %d", seat))
		}
	}
	for _, pc := range s.CurrentTrick {
		track(pc.Card, "current trick")
	}
	for team, tricks := range s.TeamTricks {
		for _, t := range tricks {
			for _, pc := range t.Cards {
				track(pc.Card, fmt.Sprintf("tricks of team %d", team))
			}
		}
	}
	if count != DeckSize {
		v.addf("card count %d, want %d", count, DeckSize)
	}

	if len(s.CurrentTrick) > 4 {
		v.addf("current trick holds %d cards", len(s.CurrentTrick))
	}

	perTeam := [2]int{}
	for seat, tricks := range s.PlayerTricks {
		if team := s.TeamOf(seat); team != NoSeat {
			perTeam[team] += len(tricks)
		}
	}
	total := 0
	for team, tricks := range s.TeamTricks {
		total += len(tricks)
		if perTeam[team] != len(tricks) {
			v.addf("team %d collected %d tricks but its players hold %d", team, len(tricks), perTeam[team])
		}
		for i, t := range tricks {
			if len(t.Cards) != 4 {
				v.addf("trick %d of team %d holds %d cards", i, team, len(t.Cards))
			}
		}
	}
	if total != s.TrickCount {
		v.addf("trick counter %d, collected %d", s.TrickCount, total)
	}
}

func validatePhase(s *GameState, v *violations) {
	switch s.Phase {
	case PhaseWaiting, PhaseDealing, PhasePlaying, PhaseArrastre, PhaseScoring, PhaseGameOver:
	default:
		v.addf("unknown phase %q", s.Phase)
	}
	if s.Phase == PhaseArrastre && len(s.DrawPile) > 0 {
		v.addf("arrastre with %d cards in the pile", len(s.DrawPile))
	}
	if s.Phase == PhasePlaying && len(s.DrawPile) == 0 {
		v.addf("playing with an empty pile")
	}
	if s.Phase == PhaseDealing || s.Phase == PhasePlaying {
		for seat, hand := range s.Hands {
			if len(hand) > HandSize {
				v.addf("hand %d holds %d cards", seat, len(hand))
			}
		}
	}
	if s.TrumpCard != nil {
		if s.TrumpCard.Suit != s.TrumpSuit {
			v.addf("trump card %s does not match trump suit %s", s.TrumpCard.ID(), s.TrumpSuit)
		}
		if len(s.DrawPile) > 0 && s.DrawPile[0] != *s.TrumpCard {
			v.addf("trump card %s is not under the pile", s.TrumpCard.ID())
		}
	} else if s.Phase == PhasePlaying || s.Phase == PhaseArrastre {
		v.addf("%s without a trump card", s.Phase)
	}
}

func validateScores(s *GameState, v *violations) {
	sum := 0
	for t, team := range s.Teams {
		sum += team.CardPoints
		melds := 0
		for _, m := range team.Melds {
			melds += m.Points
		}
		if team.Score != team.CardPoints+melds {
			v.addf("team %d score %d != card points %d + melds %d", t, team.Score, team.CardPoints, melds)
		}
		collected := CalculateHandPoints(s.TeamTricks[t])
		if team.CardPoints < collected || team.CardPoints > collected+s.Rules.LastTrickBonus {
			v.addf("team %d card points %d inconsistent with collected %d", t, team.CardPoints, collected)
		}
	}
	if sum > MaxCardPoints+s.Rules.LastTrickBonus {
		v.addf("card points total %d exceeds %d", sum, MaxCardPoints+s.Rules.LastTrickBonus)
	}
}

// ValidateTransition checks that next may follow prev. Within the same hand only
// documented phase edges are allowed, and scores, card points and the trick
// counter never decrease. A new hand follows scoring, one hand at a time, and
// starts in dealing.
func ValidateTransition(prev, next *GameState) ValidationResult {
	var v violations
	if prev == nil || next == nil {
		v.addf("nil state")
		return v.result()
	}
	switch {
	case next.HandNumber < prev.HandNumber:
		v.addf("hand number went back from %d to %d", prev.HandNumber, next.HandNumber)
	case next.HandNumber == prev.HandNumber:
		if !CanTransition(prev.Phase, next.Phase) {
			v.addf("illegal phase transition %s -> %s", prev.Phase, next.Phase)
		}
		for t := range prev.Teams {
			if next.Teams[t].Score < prev.Teams[t].Score {
				v.addf("team %d score decreased %d -> %d", t, prev.Teams[t].Score, next.Teams[t].Score)
			}
			if next.Teams[t].CardPoints < prev.Teams[t].CardPoints {
				v.addf("team %d card points decreased %d -> %d", t, prev.Teams[t].CardPoints, next.Teams[t].CardPoints)
			}
		}
		if next.TrickCount < prev.TrickCount {
			v.addf("trick counter decreased %d -> %d", prev.TrickCount, next.TrickCount)
		}
	default:
		if next.HandNumber != prev.HandNumber+1 {
			v.addf("hand number jumped from %d to %d", prev.HandNumber, next.HandNumber)
		}
		if prev.Phase != PhaseScoring {
			v.addf("new hand started from %s", prev.Phase)
		}
		if next.Phase != PhaseDealing {
			v.addf("new hand begins in %s", next.Phase)
		}
	}
	for t := range prev.Match.Partidas {
		if next.Match.Cotos[t] < prev.Match.Cotos[t] {
			v.addf("team %d cotos decreased", t)
		}
	}
	return v.result()
}
