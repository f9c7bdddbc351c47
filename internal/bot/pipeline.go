package bot

import (
	"sort"

	"guinote/internal/bot/brain"
	"guinote/internal/domain"
)

// DecisionContext holds the state for the move decision pipeline.
type DecisionContext struct {
	State  *domain.GameState
	Seat   int
	Legal  []domain.Card
	Memory *brain.GameMemory
	// Move is set by the first rule that decides.
	Move *Move
}

// DecisionRule represents a logic unit that may decide the bot's move.
type DecisionRule interface {
	Name() string
	Apply(ctx *DecisionContext)
}

// RunPipeline applies rules in order until one sets ctx.Move.
func RunPipeline(ctx *DecisionContext, rules ...DecisionRule) {
	for _, r := range rules {
		if ctx.Move != nil {
			return
		}
		r.Apply(ctx)
	}
}

// ExchangeSevenRule takes the turned-up trump whenever the 7 allows it.
type ExchangeSevenRule struct{}

func (r *ExchangeSevenRule) Name() string { return "ExchangeSeven" }

func (r *ExchangeSevenRule) Apply(ctx *DecisionContext) {
	if canExchange(ctx.State, ctx.Seat) {
		ctx.Move = &Move{Kind: MoveExchange}
	}
}

// MeldRule sings the most valuable meld available.
type MeldRule struct{}

func (r *MeldRule) Name() string { return "Meld" }

func (r *MeldRule) Apply(ctx *DecisionContext) {
	if suits := meldableSuits(ctx.State, ctx.Seat); len(suits) > 0 {
		ctx.Move = &Move{Kind: MoveMeld, Suit: suits[0]}
	}
}

// FollowRule decides when cards are already on the table: feed points to a winning
// partner, otherwise win as cheaply as possible or throw the least valuable card.
type FollowRule struct{}

func (r *FollowRule) Name() string { return "Follow" }

func (r *FollowRule) Apply(ctx *DecisionContext) {
	trick := ctx.State.CurrentTrick
	if len(trick) == 0 || len(ctx.Legal) == 0 {
		return
	}
	trump := ctx.State.TrumpSuit
	current := domain.ResolveTrick(trick, trump)

	if current.Winner == domain.PartnerSeat(ctx.Seat) && partnerHolds(ctx, trick) {
		cards := sortedByCost(ctx.Legal, trump)
		ctx.Move = &Move{Kind: MovePlay, Card: richestNonTrump(cards, trump)}
		return
	}

	var winners []domain.Card
	for _, c := range ctx.Legal {
		probe := append(append([]domain.PlayedCard(nil), trick...), domain.PlayedCard{Seat: ctx.Seat, Card: c})
		if domain.ResolveTrick(probe, trump).Winner == ctx.Seat {
			winners = append(winners, c)
		}
	}
	worth := current.Points
	if len(winners) > 0 && (worth > 0 || len(trick) == 3) {
		ctx.Move = &Move{Kind: MovePlay, Card: sortedByCost(winners, trump)[0]}
		return
	}
	ctx.Move = &Move{Kind: MovePlay, Card: sortedByCost(ctx.Legal, trump)[0]}
}

// LeadRule opens a trick with a boss card worth points, else the cheapest card.
type LeadRule struct{}

func (r *LeadRule) Name() string { return "Lead" }

func (r *LeadRule) Apply(ctx *DecisionContext) {
	if len(ctx.Legal) == 0 {
		return
	}
	trump := ctx.State.TrumpSuit
	cards := sortedByCost(ctx.Legal, trump)
	if ctx.Memory != nil {
		for i := len(cards) - 1; i >= 0; i-- {
			c := cards[i]
			if c.Suit != trump && c.Points() >= 10 && ctx.Memory.IsBoss(c) && ctx.Memory.Outstanding(trump) == 0 {
				ctx.Move = &Move{Kind: MovePlay, Card: c}
				return
			}
		}
	}
	ctx.Move = &Move{Kind: MovePlay, Card: cards[0]}
}

// partnerHolds reports whether the partner's winning card can survive the seats still to play.
// Only the last seat to play knows for sure; earlier seats trust a partner's boss card.
func partnerHolds(ctx *DecisionContext, trick []domain.PlayedCard) bool {
	if len(trick) == 3 {
		return true
	}
	partner := domain.PartnerSeat(ctx.Seat)
	for _, pc := range trick {
		if pc.Seat == partner {
			return ctx.Memory == nil || ctx.Memory.IsBoss(pc.Card)
		}
	}
	return false
}

// sortedByCost orders cards from cheapest to dearest to give away: non-trumps before
// trumps, then by points, then by strength.
func sortedByCost(cards []domain.Card, trump domain.Suit) []domain.Card {
	out := append([]domain.Card(nil), cards...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Suit == trump, out[j].Suit == trump
		if ti != tj {
			return !ti
		}
		if out[i].Points() != out[j].Points() {
			return out[i].Points() < out[j].Points()
		}
		return out[i].Strength() < out[j].Strength()
	})
	return out
}

func richestNonTrump(sorted []domain.Card, trump domain.Suit) domain.Card {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Suit != trump {
			return sorted[i]
		}
	}
	return sorted[0]
}
