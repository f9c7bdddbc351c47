package bot

import (
	"guinote/internal/bot/brain"
	"guinote/internal/domain"
)

// GoodBot tracks the cards it has seen and runs the decision pipeline.
type GoodBot struct {
	memory *brain.GameMemory
	rules  []DecisionRule
}

func NewGoodBot() *GoodBot {
	return &GoodBot{
		memory: brain.NewMemory(),
		rules: []DecisionRule{
			&ExchangeSevenRule{},
			&MeldRule{},
			&FollowRule{},
			&LeadRule{},
		},
	}
}

func (b *GoodBot) CalculateMove(state *domain.GameState, seat int) (Move, error) {
	b.memory.Observe(state, seat)
	ctx := &DecisionContext{
		State:  state,
		Seat:   seat,
		Legal:  domain.LegalCards(state, state.Players[seat].ID),
		Memory: b.memory,
	}
	RunPipeline(ctx, b.rules...)
	if ctx.Move == nil {
		return Move{}, ErrNoLegalMove
	}
	return *ctx.Move, nil
}
