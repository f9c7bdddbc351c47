package app

import "guinote/internal/domain"

// PlayerView is what one seat is allowed to see of a game: its own hand, the table,
// the turned-up trump and public counters. Other hands and the pile order stay hidden.
type PlayerView struct {
	GameID          string               `json:"game_id,omitempty"`
	PlayerID        string               `json:"player_id"`
	Seat            int                  `json:"seat"`
	Phase           domain.Phase         `json:"phase"`
	Players         [4]domain.Player     `json:"players"`
	Hand            []domain.Card        `json:"hand"`
	HandSizes       [4]int               `json:"hand_sizes"`
	PileSize        int                  `json:"pile_size"`
	TrumpSuit       domain.Suit          `json:"trump_suit"`
	TrumpCard       *domain.Card         `json:"trump_card,omitempty"`
	CurrentTrick    []domain.PlayedCard  `json:"current_trick"`
	CurrentPlayer   int                  `json:"current_player"`
	Dealer          int                  `json:"dealer"`
	TrickCount      int                  `json:"trick_count"`
	LastTrickWinner int                  `json:"last_trick_winner"`
	Scores          [2]int               `json:"scores"`
	CardPoints      [2]int               `json:"card_points"`
	Melds           []domain.Meld        `json:"melds"`
	IsVueltas       bool                 `json:"is_vueltas"`
	Match           domain.MatchProgress `json:"match"`
	HandNumber      int                  `json:"hand_number"`
	HandWinner      int                  `json:"hand_winner"`
	MatchWinner     int                  `json:"match_winner"`
	LegalCards      []domain.Card        `json:"legal_cards"`
}

// ViewFor projects state for playerID. An unknown player gets a spectator view with
// no hand.
func ViewFor(state *domain.GameState, playerID string) PlayerView {
	seat := state.SeatOf(playerID)
	v := PlayerView{
		PlayerID:        playerID,
		Seat:            seat,
		Phase:           state.Phase,
		Players:         state.Players,
		PileSize:        len(state.DrawPile),
		TrumpSuit:       state.TrumpSuit,
		CurrentTrick:    append([]domain.PlayedCard{}, state.CurrentTrick...),
		CurrentPlayer:   state.CurrentPlayer,
		Dealer:          state.Dealer,
		TrickCount:      state.TrickCount,
		LastTrickWinner: state.LastTrickWinner,
		Scores:          scores(state),
		CardPoints:      cardPoints(state),
		IsVueltas:       state.IsVueltas,
		Match:           state.Match,
		HandNumber:      state.HandNumber,
		HandWinner:      state.HandWinner,
		MatchWinner:     state.MatchWinner,
		Hand:            []domain.Card{},
		Melds:           []domain.Meld{},
		LegalCards:      []domain.Card{},
	}
	if state.TrumpCard != nil {
		trump := *state.TrumpCard
		v.TrumpCard = &trump
	}
	for i, hand := range state.Hands {
		v.HandSizes[i] = len(hand)
	}
	for _, t := range state.Teams {
		v.Melds = append(v.Melds, t.Melds...)
	}
	if seat != domain.NoSeat {
		v.Hand = append(v.Hand, state.Hands[seat]...)
		domain.SortHand(v.Hand)
		v.LegalCards = append(v.LegalCards, domain.LegalCards(state, playerID)...)
	}
	return v
}
