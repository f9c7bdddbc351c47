package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"guinote/internal/ports"
)

// afterAuthenticateDevice creates the stats record of a freshly created account.
func afterAuthenticateDevice(stats func(runtime.NakamaModule) ports.StatsPort) func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, *api.Session, *api.AuthenticateDeviceRequest) error {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
		if !out.GetCreated() {
			return nil
		}
		userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if userID == "" {
			// Nakama signed the session token itself; only its claims are needed.
			resolved, err := extractUserIDFromToken(out.GetToken())
			if err != nil {
				logger.Error("AfterAuthenticateDevice: Failed to extract user ID from token: %v", err)
				return err
			}
			userID = resolved
		}

		created, err := stats(nk).InitStats(ctx, userID)
		if err != nil {
			logger.Error("AfterAuthenticateDevice: Failed to init stats for user %s: %v", userID, err)
			return err
		}
		if !created {
			logger.Info("AfterAuthenticateDevice: Stats already present for user %s", userID)
		}
		return nil
	}
}

func extractUserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}
	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", errors.New("token claims missing uid")
	}
	return uid, nil
}
