// Package postgres persists game snapshots and event logs in PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"guinote/internal/app"
	"guinote/internal/domain"
	"guinote/internal/ports"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

var (
	_ ports.SnapshotStore = (*DB)(nil)
	_ ports.EventLog      = (*DB)(nil)
)

func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &DB{p}, nil
}

func (db *DB) Close()                         { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// SaveSnapshot upserts the latest snapshot of a game.
func (db *DB) SaveSnapshot(ctx context.Context, gameID string, snap domain.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = db.Exec(ctx, `
		INSERT INTO games(id, version, phase, hand_number, snapshot)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		   SET version = EXCLUDED.version,
		       phase = EXCLUDED.phase,
		       hand_number = EXCLUDED.hand_number,
		       snapshot = EXCLUDED.snapshot,
		       updated_at = now()
	`, gameID, snap.Version, string(snap.Phase), snap.HandNumber, body)
	return err
}

func (db *DB) LoadSnapshot(ctx context.Context, gameID string) (domain.Snapshot, error) {
	var body []byte
	err := db.QueryRow(ctx, `SELECT snapshot FROM games WHERE id = $1`, gameID).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, fmt.Errorf("snapshot %s: %w", gameID, ports.ErrNotFound)
		}
		return domain.Snapshot{}, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot %s: %w", gameID, err)
	}
	return snap, nil
}

// AppendEvents writes events in one batch. A duplicate (game, seq) fails the batch.
func (db *DB) AppendEvents(ctx context.Context, events []ports.LoggedEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		body, err := json.Marshal(ev.Event)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", ev.Seq, err)
		}
		batch.Queue(`
			INSERT INTO game_events(game_id, seq, kind, body, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, ev.GameID, ev.Seq, string(ev.Event.Kind), body, ev.At)
	}
	return db.SendBatch(ctx, batch).Close()
}

// ListEvents returns the events of gameID after afterSeq in order. Payloads come back
// as generic JSON values.
func (db *DB) ListEvents(ctx context.Context, gameID string, afterSeq int64) ([]ports.LoggedEvent, error) {
	rows, err := db.Query(ctx, `
		SELECT seq, body, created_at
		  FROM game_events
		 WHERE game_id = $1 AND seq > $2
		 ORDER BY seq
	`, gameID, afterSeq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.LoggedEvent
	for rows.Next() {
		ev := ports.LoggedEvent{GameID: gameID}
		var body []byte
		if err := rows.Scan(&ev.Seq, &body, &ev.At); err != nil {
			return nil, err
		}
		var decoded app.Event
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, fmt.Errorf("unmarshal event %d: %w", ev.Seq, err)
		}
		ev.Event = decoded
		out = append(out, ev)
	}
	return out, rows.Err()
}

// LastSeq returns the highest logged sequence number of gameID, or 0.
func (db *DB) LastSeq(ctx context.Context, gameID string) (int64, error) {
	var seq int64
	err := db.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM game_events WHERE game_id = $1`, gameID).Scan(&seq)
	return seq, err
}
