package domain

import "fmt"

// ApplyTrickScoring credits a completed trick to the winner's team: score, card points,
// collected-trick piles and the trick counter. When the winner has no team the input
// state is returned unchanged together with ErrTeamNotFound.
func ApplyTrickScoring(s *GameState, trick Trick) (*GameState, error) {
	team := s.TeamOf(trick.Winner)
	if team == NoSeat {
		return s, fmt.Errorf("score trick won by seat %d: %w", trick.Winner, ErrTeamNotFound)
	}
	next := s.Clone()
	next.Teams[team].Score += trick.Points
	next.Teams[team].CardPoints += trick.Points
	next.TeamTricks[team] = append(next.TeamTricks[team], trick)
	next.PlayerTricks[trick.Winner] = append(next.PlayerTricks[trick.Winner], trick)
	next.TrickCount++
	return next, nil
}

// ApplyLastTrickBonus adds the diez de últimas to team. The bonus counts as card points.
func ApplyLastTrickBonus(s *GameState, team int) (*GameState, error) {
	if team < 0 || team >= len(s.Teams) {
		return s, fmt.Errorf("last trick bonus for team %d: %w", team, ErrTeamNotFound)
	}
	next := s.Clone()
	next.Teams[team].Score += next.Rules.LastTrickBonus
	next.Teams[team].CardPoints += next.Rules.LastTrickBonus
	return next, nil
}

// CalculateHandPoints re-derives card points from collected tricks.
func CalculateHandPoints(tricks []Trick) int {
	total := 0
	for _, t := range tricks {
		for _, pc := range t.Cards {
			total += pc.Card.Points()
		}
	}
	return total
}

// MeldPoints returns the value of a meld in suit.
func MeldPoints(s *GameState, suit Suit) int {
	if suit == s.TrumpSuit {
		return s.Rules.TrumpMeldPoints
	}
	return s.Rules.MeldPoints
}

// EffectiveScore is the team's score including the idas baseline during vueltas.
func EffectiveScore(s *GameState, team int) int {
	if s.IsVueltas {
		return s.Baseline.Score[team] + s.Teams[team].Score
	}
	return s.Teams[team].Score
}

// EffectiveCardPoints is the card-point counterpart of EffectiveScore.
func EffectiveCardPoints(s *GameState, team int) int {
	if s.IsVueltas {
		return s.Baseline.CardPoints[team] + s.Teams[team].CardPoints
	}
	return s.Teams[team].CardPoints
}

// Qualifies reports whether team has reached the target score with the minimum card points.
func Qualifies(s *GameState, team int) bool {
	return EffectiveScore(s, team) >= s.Rules.TargetScore &&
		EffectiveCardPoints(s, team) >= s.Rules.MinCardPoints
}
