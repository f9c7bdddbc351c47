package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"guinote/internal/bot"
	"guinote/internal/config"
	"guinote/internal/ports"
)

// InitModule wires RPCs, hooks and the match handler for the Nakama runtime. Settings
// come from the defaults overridden by the runtime env map.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	cfg := config.Default()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if err := cfg.ApplyRuntimeEnv(env); err != nil {
			return err
		}
	}

	roster := bot.DefaultRoster()
	if cfg.Bots.RosterPath != "" {
		loaded, err := bot.LoadRoster(cfg.Bots.RosterPath)
		if err != nil {
			logger.Warn("InitModule: Could not load bot identities: %v", err)
		} else {
			roster = loaded
		}
	}
	roster.Provision(ctx, nk, logger)

	stats := func(nk runtime.NakamaModule) ports.StatsPort {
		return NewNakamaStatsAdapter(nk)
	}

	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcGetStats, rpcGetStats(stats)); err != nil {
		return err
	}
	if err := initializer.RegisterAfterAuthenticateDevice(afterAuthenticateDevice(stats)); err != nil {
		return err
	}
	if err := initializer.RegisterMatch(MatchNameGuinote, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(*cfg, roster, stats), nil
	}); err != nil {
		return err
	}

	logger.Info("Guinote Go module loaded.")
	return nil
}
