package app

import "guinote/internal/domain"

// EventKind identifies emitted game events for transport dispatch.
type EventKind string

const (
	EventHandStarted     EventKind = "hand_started"
	EventHandDealt       EventKind = "hand_dealt"
	EventCardPlayed      EventKind = "card_played"
	EventTrickWon        EventKind = "trick_won"
	EventCardsDrawn      EventKind = "cards_drawn"
	EventArrastreStarted EventKind = "arrastre_started"
	EventMeldDeclared    EventKind = "meld_declared"
	EventSevenExchanged  EventKind = "seven_exchanged"
	EventHandEnded       EventKind = "hand_ended"
	EventMatchEnded      EventKind = "match_ended"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind `json:"kind"`
	Payload    any       `json:"payload"`
	Recipients []string  `json:"recipients,omitempty"` // player IDs; empty means broadcast
}

// Private reports whether the event must only reach its recipients.
func (e Event) Private() bool {
	return len(e.Recipients) > 0
}

type HandStartedPayload struct {
	HandNumber    int                  `json:"hand_number"`
	Dealer        int                  `json:"dealer"`
	TrumpCard     domain.Card          `json:"trump_card"`
	CurrentPlayer int                  `json:"current_player"`
	Vueltas       bool                 `json:"vueltas"`
	Baseline      [2]int               `json:"baseline"`
	Match         domain.MatchProgress `json:"match"`
}

type HandDealtPayload struct {
	PlayerID string        `json:"player_id"`
	Seat     int           `json:"seat"`
	Hand     []domain.Card `json:"hand"`
}

type CardPlayedPayload struct {
	PlayerID      string      `json:"player_id"`
	Seat          int         `json:"seat"`
	Card          domain.Card `json:"card"`
	CurrentPlayer int         `json:"current_player"`
}

type TrickWonPayload struct {
	Winner     int                 `json:"winner"`
	Team       int                 `json:"team"`
	Points     int                 `json:"points"`
	Cards      []domain.PlayedCard `json:"cards"`
	TrickCount int                 `json:"trick_count"`
	Scores     [2]int              `json:"scores"`
	PileSize   int                 `json:"pile_size"`
}

// CardsDrawnPayload tells one seat which card it picked up after a trick.
type CardsDrawnPayload struct {
	PlayerID string        `json:"player_id"`
	Seat     int           `json:"seat"`
	Cards    []domain.Card `json:"cards"`
}

type MeldDeclaredPayload struct {
	PlayerID string      `json:"player_id"`
	Seat     int         `json:"seat"`
	Team     int         `json:"team"`
	Suit     domain.Suit `json:"suit"`
	Points   int         `json:"points"`
	Scores   [2]int      `json:"scores"`
}

type SevenExchangedPayload struct {
	PlayerID  string      `json:"player_id"`
	Seat      int         `json:"seat"`
	Taken     domain.Card `json:"taken"`
	TrumpCard domain.Card `json:"trump_card"`
}

type HandEndedPayload struct {
	HandNumber int                  `json:"hand_number"`
	Winner     int                  `json:"winner"` // team, or -1 when the hand goes to vueltas
	Scores     [2]int               `json:"scores"`
	CardPoints [2]int               `json:"card_points"`
	Vueltas    bool                 `json:"vueltas"`
	Match      domain.MatchProgress `json:"match"`
}

type MatchEndedPayload struct {
	Winner int                  `json:"winner"`
	Match  domain.MatchProgress `json:"match"`
}
