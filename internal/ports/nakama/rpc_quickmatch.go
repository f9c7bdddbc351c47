package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"guinote/internal/ports"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// matchFinder is the slice of runtime.NakamaModule quick match needs.
type matchFinder interface {
	MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error)
	MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return quickMatch(ctx, logger, nk)
}

// quickMatch joins the first lobby with a free seat or creates a new one; seat and
// owner assignment happen in MatchJoin.
func quickMatch(ctx context.Context, logger runtime.Logger, nk matchFinder) (string, error) {
	query := "+label.game:guinote +label.state:lobby +label.open:>=1"

	limit := 10
	authoritative := true
	minSize := 1
	maxSize := 3

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{}
	if len(matches) > 0 {
		resp.MatchID = matches[0].GetMatchId()
	} else {
		matchID, err := nk.MatchCreate(ctx, MatchNameGuinote, map[string]interface{}{})
		if err != nil {
			logger.Error("MatchCreate error: %v", err)
			return "", err
		}
		resp = QuickMatchResponse{MatchID: matchID, IsNew: true}
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// rpcGetStats returns the caller's match record.
func rpcGetStats(stats func(runtime.NakamaModule) ports.StatsPort) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if userID == "" {
			return "", errors.New("authentication required")
		}
		record, err := stats(nk).GetStats(ctx, userID)
		if err != nil {
			logger.Error("GetStats [User:%s]: %v", userID, err)
			return "", err
		}
		b, err := json.Marshal(record)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
