package domain

// transitions lists the phase edges a hand may take. Staying in the same phase is always allowed.
var transitions = map[Phase][]Phase{
	PhaseWaiting:  {PhaseDealing},
	PhaseDealing:  {PhasePlaying},
	PhasePlaying:  {PhaseArrastre, PhaseScoring, PhaseGameOver},
	PhaseArrastre: {PhaseScoring, PhaseGameOver},
	PhaseScoring:  {PhaseDealing, PhaseGameOver},
}

// CanTransition reports whether a state in phase from may be followed by one in phase to.
func CanTransition(from, to Phase) bool {
	if from == to {
		return true
	}
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// IsLastTrick reports whether the hand is exhausted: empty pile and every hand empty.
func IsLastTrick(s *GameState) bool {
	if len(s.DrawPile) > 0 {
		return false
	}
	for _, h := range s.Hands {
		if len(h) > 0 {
			return false
		}
	}
	return true
}

// ShouldStartVueltas reports whether an exhausted idas hand ended without any team
// reaching the target, so the next hand is played as vueltas.
func ShouldStartVueltas(s *GameState) bool {
	if s.IsVueltas || !IsLastTrick(s) {
		return false
	}
	for team := range s.Teams {
		if Qualifies(s, team) {
			return false
		}
	}
	return true
}

// checkEarlyFinish ends the hand at once when team, which just won a trick or sang,
// reaches the target with the minimum card points.
func (s *GameState) checkEarlyFinish(team int) bool {
	if !Qualifies(s, team) {
		return false
	}
	s.concludeHand(team)
	return true
}

// resolveHandEnd decides an exhausted hand. The last-trick bonus has already been applied.
func (s *GameState) resolveHandEnd() {
	lastTeam := s.TeamOf(s.LastTrickWinner)

	var qualified []int
	for team := range s.Teams {
		if Qualifies(s, team) {
			qualified = append(qualified, team)
		}
	}
	switch {
	case len(qualified) == 1:
		s.concludeHand(qualified[0])
	case len(qualified) == 2 || s.IsVueltas:
		s.concludeHand(s.leader(lastTeam))
	default:
		// Nobody reached the target in idas: vueltas follow.
		s.HandWinner = NoSeat
		s.Phase = PhaseScoring
	}
}

// leader returns the team with the higher effective score, breaking ties in favour of tieBreak.
func (s *GameState) leader(tieBreak int) int {
	a, b := EffectiveScore(s, 0), EffectiveScore(s, 1)
	switch {
	case a > b:
		return 0
	case b > a:
		return 1
	case tieBreak == 1:
		return 1
	default:
		return 0
	}
}

// concludeHand awards the partida to team and advances coto and match counters.
func (s *GameState) concludeHand(team int) {
	s.HandWinner = team
	s.Match.Partidas[team]++
	if s.Match.Partidas[team] >= s.Rules.PartidasPerCoto {
		s.Match.Cotos[team]++
		s.Match.Partidas = [2]int{}
	}
	if s.Match.Cotos[team] >= s.Rules.CotosPerMatch {
		s.MatchWinner = team
		s.Phase = PhaseGameOver
		return
	}
	s.Phase = PhaseScoring
}
