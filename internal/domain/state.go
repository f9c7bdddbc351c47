package domain

// Phase represents the lifecycle stage of a hand.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseDealing  Phase = "dealing"
	PhasePlaying  Phase = "playing"
	PhaseArrastre Phase = "arrastre"
	PhaseScoring  Phase = "scoring"
	PhaseGameOver Phase = "gameOver"
)

// NoSeat marks an unset seat reference (no trick won yet, no winner yet).
const NoSeat = -1

// Player is a seated participant. Seats 0 and 2 form team 0, seats 1 and 3 team 1.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Seat int    `json:"seat"`
	Team int    `json:"team"`
}

// Meld (cante) is a declared Rey+Sota pair of one suit.
type Meld struct {
	Team   int  `json:"team"`
	Suit   Suit `json:"suit"`
	Points int  `json:"points"`
}

// Team is one of the two partnerships.
type Team struct {
	ID      int       `json:"id"`
	Players [2]string `json:"players"`
	// Score counts card points, bonuses and melds of the current hand.
	Score int `json:"score"`
	// CardPoints counts card points and the last-trick bonus only.
	CardPoints int    `json:"card_points"`
	Melds      []Meld `json:"melds"`
}

// PlayedCard is a card placed on the table by the player at Seat.
type PlayedCard struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// Trick is a completed baza.
type Trick struct {
	Cards  []PlayedCard `json:"cards"`
	Winner int          `json:"winner"`
	Points int          `json:"points"`
}

// Baseline is the idas snapshot a vueltas hand builds on.
type Baseline struct {
	Score      [2]int `json:"score"`
	CardPoints [2]int `json:"card_points"`
}

// MatchProgress counts partidas within the current coto and cotos within the match.
type MatchProgress struct {
	Partidas [2]int `json:"partidas"`
	Cotos    [2]int `json:"cotos"`
}

// GameState is the authoritative state of one hand plus the match counters carried across hands.
// Engine functions never modify a GameState they receive; each returns a fresh copy.
type GameState struct {
	Phase   Phase
	Players [4]Player
	Teams   [2]Team

	// DrawPile is consumed from the end. While non-empty, index 0 holds the exposed trump card.
	DrawPile     []Card
	Hands        [4][]Card
	CurrentTrick []PlayedCard

	TrumpSuit Suit
	// TrumpCard is the card turned up at deal time; nil until dealt.
	TrumpCard *Card

	CurrentPlayer int
	Dealer        int
	TrickCount    int

	PlayerTricks [4][]Trick
	TeamTricks   [2][]Trick

	LastTrickWinner int
	// MeldDeclared is set once a meld is sung for the current trick win.
	MeldDeclared bool

	IsVueltas bool
	Baseline  Baseline

	Match      MatchProgress
	HandNumber int
	// HandWinner is the team that took the partida of this hand, or NoSeat.
	HandWinner  int
	MatchWinner int

	Rules Rules
}

// Clone returns a deep copy of s.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.DrawPile = cloneCards(s.DrawPile)
	out.CurrentTrick = clonePlayed(s.CurrentTrick)
	for i := range s.Hands {
		out.Hands[i] = cloneCards(s.Hands[i])
		out.PlayerTricks[i] = cloneTricks(s.PlayerTricks[i])
	}
	for i := range s.Teams {
		out.TeamTricks[i] = cloneTricks(s.TeamTricks[i])
		if s.Teams[i].Melds != nil {
			out.Teams[i].Melds = append([]Meld(nil), s.Teams[i].Melds...)
		}
	}
	if s.TrumpCard != nil {
		tc := *s.TrumpCard
		out.TrumpCard = &tc
	}
	return &out
}

// SeatOf returns the seat of playerID, or NoSeat.
func (s *GameState) SeatOf(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID && p.ID != "" {
			return i
		}
	}
	return NoSeat
}

// TeamOf returns the index of the team listing the player at seat, or NoSeat.
func (s *GameState) TeamOf(seat int) int {
	if seat < 0 || seat >= len(s.Players) {
		return NoSeat
	}
	id := s.Players[seat].ID
	for i, t := range s.Teams {
		if t.Players[0] == id || t.Players[1] == id {
			return i
		}
	}
	return NoSeat
}

// CollectedCards counts cards held in the per-team trick piles.
func (s *GameState) CollectedCards() int {
	n := 0
	for _, tricks := range s.TeamTricks {
		for _, t := range tricks {
			n += len(t.Cards)
		}
	}
	return n
}

// InPlay reports whether cards may currently be played.
func (s *GameState) InPlay() bool {
	return s.Phase == PhasePlaying || s.Phase == PhaseArrastre
}
