package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// SnapshotVersion tags the layout of Snapshot.
const SnapshotVersion = 1

// Snapshot is the persisted form of a GameState. Seat- and team-keyed fields are stored as
// ordered records so that decoding restores identical key sets and value ordering.
type Snapshot struct {
	Version         int              `json:"version"`
	Phase           Phase            `json:"phase"`
	Players         []Player         `json:"players"`
	Teams           []TeamRecord     `json:"teams"`
	DrawPile        []string         `json:"draw_pile"`
	Hands           []HandRecord     `json:"hands"`
	CurrentTrick    []PlayRecord     `json:"current_trick"`
	TrumpSuit       Suit             `json:"trump_suit"`
	TrumpCard       string           `json:"trump_card,omitempty"`
	CurrentPlayer   int              `json:"current_player"`
	Dealer          int              `json:"dealer"`
	TrickCount      int              `json:"trick_count"`
	PlayerTricks    []TricksRecord   `json:"player_tricks"`
	TeamTricks      []TricksRecord   `json:"team_tricks"`
	LastTrickWinner int              `json:"last_trick_winner"`
	MeldDeclared    bool             `json:"meld_declared"`
	IsVueltas       bool             `json:"is_vueltas"`
	Baseline        []BaselineRecord `json:"baseline"`
	Match           MatchProgress    `json:"match"`
	HandNumber      int              `json:"hand_number"`
	HandWinner      int              `json:"hand_winner"`
	MatchWinner     int              `json:"match_winner"`
	Rules           Rules            `json:"rules"`
}

// TeamRecord is one team keyed by its id.
type TeamRecord struct {
	ID         int       `json:"id"`
	Players    [2]string `json:"players"`
	Score      int       `json:"score"`
	CardPoints int       `json:"card_points"`
	Melds      []Meld    `json:"melds"`
}

// HandRecord is one player's hand keyed by seat and player id.
type HandRecord struct {
	Seat     int      `json:"seat"`
	PlayerID string   `json:"player_id"`
	Cards    []string `json:"cards"`
}

// PlayRecord is a card played by seat.
type PlayRecord struct {
	Seat int    `json:"seat"`
	Card string `json:"card"`
}

// TrickRecord is a collected trick.
type TrickRecord struct {
	Cards  []PlayRecord `json:"cards"`
	Winner int          `json:"winner"`
	Points int          `json:"points"`
}

// TricksRecord is a collected-trick pile keyed by seat or team.
type TricksRecord struct {
	Key    int           `json:"key"`
	Tricks []TrickRecord `json:"tricks"`
}

// BaselineRecord is the vueltas baseline of one team.
type BaselineRecord struct {
	Team       int `json:"team"`
	Score      int `json:"score"`
	CardPoints int `json:"card_points"`
}

// Encode converts s to its snapshot form. Records are emitted in seat/team order and
// empty collections are encoded as empty lists.
func Encode(s *GameState) Snapshot {
	snap := Snapshot{
		Version:         SnapshotVersion,
		Phase:           s.Phase,
		Players:         append(make([]Player, 0, 4), s.Players[:]...),
		Teams:           make([]TeamRecord, 0, 2),
		DrawPile:        encodeCards(s.DrawPile),
		Hands:           make([]HandRecord, 0, 4),
		CurrentTrick:    encodePlays(s.CurrentTrick),
		TrumpSuit:       s.TrumpSuit,
		CurrentPlayer:   s.CurrentPlayer,
		Dealer:          s.Dealer,
		TrickCount:      s.TrickCount,
		PlayerTricks:    make([]TricksRecord, 0, 4),
		TeamTricks:      make([]TricksRecord, 0, 2),
		LastTrickWinner: s.LastTrickWinner,
		MeldDeclared:    s.MeldDeclared,
		IsVueltas:       s.IsVueltas,
		Baseline:        make([]BaselineRecord, 0, 2),
		Match:           s.Match,
		HandNumber:      s.HandNumber,
		HandWinner:      s.HandWinner,
		MatchWinner:     s.MatchWinner,
		Rules:           s.Rules,
	}
	if s.TrumpCard != nil {
		snap.TrumpCard = s.TrumpCard.ID()
	}
	for t, team := range s.Teams {
		snap.Teams = append(snap.Teams, TeamRecord{
			ID:         team.ID,
			Players:    team.Players,
			Score:      team.Score,
			CardPoints: team.CardPoints,
			Melds:      append(make([]Meld, 0, len(team.Melds)), team.Melds...),
		})
		snap.TeamTricks = append(snap.TeamTricks, TricksRecord{Key: t, Tricks: encodeTricks(s.TeamTricks[t])})
		snap.Baseline = append(snap.Baseline, BaselineRecord{
			Team:       t,
			Score:      s.Baseline.Score[t],
			CardPoints: s.Baseline.CardPoints[t],
		})
	}
	for seat := range s.Hands {
		snap.Hands = append(snap.Hands, HandRecord{
			Seat:     seat,
			PlayerID: s.Players[seat].ID,
			Cards:    encodeCards(s.Hands[seat]),
		})
		snap.PlayerTricks = append(snap.PlayerTricks, TricksRecord{Key: seat, Tricks: encodeTricks(s.PlayerTricks[seat])})
	}
	return snap
}

// Decode rebuilds a GameState from a snapshot produced by Encode.
// Decode(Encode(s)) is Equal to s.
func Decode(snap Snapshot) (*GameState, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", snap.Version)
	}
	if len(snap.Players) != 4 || len(snap.Teams) != 2 {
		return nil, fmt.Errorf("decode snapshot: %w", ErrInvalidPlayers)
	}
	s := &GameState{
		Phase:           snap.Phase,
		TrumpSuit:       snap.TrumpSuit,
		CurrentPlayer:   snap.CurrentPlayer,
		Dealer:          snap.Dealer,
		TrickCount:      snap.TrickCount,
		LastTrickWinner: snap.LastTrickWinner,
		MeldDeclared:    snap.MeldDeclared,
		IsVueltas:       snap.IsVueltas,
		Match:           snap.Match,
		HandNumber:      snap.HandNumber,
		HandWinner:      snap.HandWinner,
		MatchWinner:     snap.MatchWinner,
		Rules:           snap.Rules,
	}
	copy(s.Players[:], snap.Players)

	var err error
	if s.DrawPile, err = decodeCards(snap.DrawPile); err != nil {
		return nil, err
	}
	if s.CurrentTrick, err = decodePlays(snap.CurrentTrick); err != nil {
		return nil, err
	}
	if snap.TrumpCard != "" {
		tc, err := ParseCardID(snap.TrumpCard)
		if err != nil {
			return nil, err
		}
		s.TrumpCard = &tc
	}
	for _, rec := range snap.Teams {
		if rec.ID < 0 || rec.ID > 1 {
			return nil, fmt.Errorf("decode snapshot: team id %d: %w", rec.ID, ErrTeamNotFound)
		}
		s.Teams[rec.ID] = Team{
			ID:         rec.ID,
			Players:    rec.Players,
			Score:      rec.Score,
			CardPoints: rec.CardPoints,
		}
		if len(rec.Melds) > 0 {
			s.Teams[rec.ID].Melds = append([]Meld(nil), rec.Melds...)
		}
	}
	for _, rec := range snap.Hands {
		if rec.Seat < 0 || rec.Seat > 3 {
			return nil, fmt.Errorf("decode snapshot: hand seat %d: %w", rec.Seat, ErrInvalidSeat)
		}
		if s.Hands[rec.Seat], err = decodeCards(rec.Cards); err != nil {
			return nil, err
		}
	}
	for _, rec := range snap.PlayerTricks {
		if rec.Key < 0 || rec.Key > 3 {
			return nil, fmt.Errorf("decode snapshot: trick seat %d: %w", rec.Key, ErrInvalidSeat)
		}
		if s.PlayerTricks[rec.Key], err = decodeTricks(rec.Tricks); err != nil {
			return nil, err
		}
	}
	for _, rec := range snap.TeamTricks {
		if rec.Key < 0 || rec.Key > 1 {
			return nil, fmt.Errorf("decode snapshot: trick team %d: %w", rec.Key, ErrTeamNotFound)
		}
		if s.TeamTricks[rec.Key], err = decodeTricks(rec.Tricks); err != nil {
			return nil, err
		}
	}
	for _, rec := range snap.Baseline {
		if rec.Team < 0 || rec.Team > 1 {
			return nil, fmt.Errorf("decode snapshot: baseline team %d: %w", rec.Team, ErrTeamNotFound)
		}
		s.Baseline.Score[rec.Team] = rec.Score
		s.Baseline.CardPoints[rec.Team] = rec.CardPoints
	}
	return s, nil
}

// Marshal encodes s as JSON.
func Marshal(s *GameState) ([]byte, error) {
	return json.Marshal(Encode(s))
}

// Unmarshal decodes JSON produced by Marshal.
func Unmarshal(data []byte) (*GameState, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return Decode(snap)
}

// Equal reports whether a and b describe the same state. Nil and empty collections compare equal.
func Equal(a, b *GameState) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(Encode(a), Encode(b))
}

func encodeCards(cards []Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID())
	}
	return out
}

func decodeCards(ids []string) ([]Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		c, err := ParseCardID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func encodePlays(plays []PlayedCard) []PlayRecord {
	out := make([]PlayRecord, 0, len(plays))
	for _, pc := range plays {
		out = append(out, PlayRecord{Seat: pc.Seat, Card: pc.Card.ID()})
	}
	return out
}

func decodePlays(recs []PlayRecord) ([]PlayedCard, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	out := make([]PlayedCard, 0, len(recs))
	for _, r := range recs {
		c, err := ParseCardID(r.Card)
		if err != nil {
			return nil, err
		}
		out = append(out, PlayedCard{Seat: r.Seat, Card: c})
	}
	return out, nil
}

func encodeTricks(tricks []Trick) []TrickRecord {
	out := make([]TrickRecord, 0, len(tricks))
	for _, t := range tricks {
		out = append(out, TrickRecord{Cards: encodePlays(t.Cards), Winner: t.Winner, Points: t.Points})
	}
	return out
}

func decodeTricks(recs []TrickRecord) ([]Trick, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	out := make([]Trick, 0, len(recs))
	for _, r := range recs {
		cards, err := decodePlays(r.Cards)
		if err != nil {
			return nil, err
		}
		out = append(out, Trick{Cards: cards, Winner: r.Winner, Points: r.Points})
	}
	return out, nil
}
