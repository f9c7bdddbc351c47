package ports

import (
	"context"
	"errors"
	"time"

	"guinote/internal/app"
	"guinote/internal/domain"
)

// ErrNotFound is returned by stores when a game has no saved record.
var ErrNotFound = errors.New("not found")

// LoggedEvent is an app event stamped with its position in a game's event log.
type LoggedEvent struct {
	GameID string    `json:"game_id"`
	Seq    int64     `json:"seq"`
	At     time.Time `json:"at"`
	Event  app.Event `json:"event"`
}

// EventPublisher fans game events out to listeners outside the game loop.
type EventPublisher interface {
	Publish(ctx context.Context, events []LoggedEvent) error
}

// SnapshotStore persists the canonical snapshot of a game after every transition.
type SnapshotStore interface {
	// SaveSnapshot stores snap as the latest state of gameID.
	SaveSnapshot(ctx context.Context, gameID string, snap domain.Snapshot) error

	// LoadSnapshot returns the latest snapshot of gameID or ErrNotFound.
	LoadSnapshot(ctx context.Context, gameID string) (domain.Snapshot, error)
}

// EventLog keeps the ordered events of each game for replay.
type EventLog interface {
	AppendEvents(ctx context.Context, events []LoggedEvent) error
	ListEvents(ctx context.Context, gameID string, afterSeq int64) ([]LoggedEvent, error)
}

// Publishers fans out to several publishers and joins their errors.
type Publishers []EventPublisher

func (ps Publishers) Publish(ctx context.Context, events []LoggedEvent) error {
	var errs []error
	for _, p := range ps {
		if err := p.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MatchRecord is the outcome of one finished match.
type MatchRecord struct {
	MatchID string
	Winners []string
	Losers  []string
}

// PlayerStats is the running record of one player.
type PlayerStats struct {
	Played int `json:"played"`
	Won    int `json:"won"`
}

// StatsPort keeps per-player match records.
type StatsPort interface {
	RecordMatch(ctx context.Context, rec MatchRecord) error
	GetStats(ctx context.Context, userID string) (PlayerStats, error)
	// InitStats creates an empty record unless one exists. It reports whether it did.
	InitStats(ctx context.Context, userID string) (bool, error)
}
