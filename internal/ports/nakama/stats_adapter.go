package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"guinote/internal/ports"
)

const (
	statsCollection = "guinote"
	statsKey        = "stats_v1"

	// attempts per player when a concurrent write wins the version check
	statsWriteAttempts = 3
)

// storage is the slice of runtime.NakamaModule the stats adapter needs.
type storage interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// NakamaStatsAdapter implements ports.StatsPort on Nakama storage. Records are
// server-owned: clients can read their own but never write them.
type NakamaStatsAdapter struct {
	nk storage
}

var _ ports.StatsPort = (*NakamaStatsAdapter)(nil)

func NewNakamaStatsAdapter(nk storage) *NakamaStatsAdapter {
	return &NakamaStatsAdapter{nk: nk}
}

func (a *NakamaStatsAdapter) GetStats(ctx context.Context, userID string) (ports.PlayerStats, error) {
	stats, _, err := a.read(ctx, userID)
	return stats, err
}

// InitStats writes an empty record for a new account. Version "*" makes the write a
// no-op when the record already exists.
func (a *NakamaStatsAdapter) InitStats(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}
	err := a.write(ctx, userID, ports.PlayerStats{}, "*")
	if errors.Is(err, runtime.ErrStorageRejectedVersion) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordMatch bumps the played counter of every listed player and the won counter of
// the winners.
func (a *NakamaStatsAdapter) RecordMatch(ctx context.Context, rec ports.MatchRecord) error {
	var errs []error
	for _, id := range rec.Winners {
		errs = append(errs, a.bump(ctx, id, true))
	}
	for _, id := range rec.Losers {
		errs = append(errs, a.bump(ctx, id, false))
	}
	return errors.Join(errs...)
}

func (a *NakamaStatsAdapter) bump(ctx context.Context, userID string, won bool) error {
	var err error
	for i := 0; i < statsWriteAttempts; i++ {
		var (
			stats   ports.PlayerStats
			version string
		)
		stats, version, err = a.read(ctx, userID)
		if err != nil {
			return err
		}
		stats.Played++
		if won {
			stats.Won++
		}
		if version == "" {
			version = "*"
		}
		err = a.write(ctx, userID, stats, version)
		if !errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return err
		}
	}
	return fmt.Errorf("record stats for %s: %w", userID, err)
}

func (a *NakamaStatsAdapter) read(ctx context.Context, userID string) (ports.PlayerStats, string, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: statsCollection,
		Key:        statsKey,
		UserID:     userID,
	}})
	if err != nil {
		return ports.PlayerStats{}, "", fmt.Errorf("failed to read stats for %s: %w", userID, err)
	}
	if len(objects) == 0 {
		return ports.PlayerStats{}, "", nil
	}
	var stats ports.PlayerStats
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &stats); err != nil {
		return ports.PlayerStats{}, "", fmt.Errorf("failed to unmarshal stats for %s: %w", userID, err)
	}
	return stats, objects[0].GetVersion(), nil
}

func (a *NakamaStatsAdapter) write(ctx context.Context, userID string, stats ports.PlayerStats, version string) error {
	value, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      statsCollection,
		Key:             statsKey,
		UserID:          userID,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}})
	return err
}
