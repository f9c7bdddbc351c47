// Package natsbus publishes game events on NATS subjects.
//
// Public events go to <prefix>.<game>.<kind>; events addressed to players go to
// <prefix>.<game>.player.<player>.<kind>, one message per recipient.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"guinote/internal/ports"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

type Publisher struct {
	conn   Conn
	prefix string
}

var _ ports.EventPublisher = (*Publisher)(nil)

func NewPublisher(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = "guinote"
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Connect dials the broker with reconnect settings suited to a long-running server.
func Connect(url, name string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

func (p *Publisher) Publish(ctx context.Context, events []ports.LoggedEvent) error {
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %s/%d: %w", ev.GameID, ev.Seq, err)
		}
		for _, subj := range p.Subjects(ev) {
			if err := p.conn.Publish(subj, data); err != nil {
				return fmt.Errorf("publish %s: %w", subj, err)
			}
		}
	}
	return nil
}

// Subjects lists the subjects ev is published on.
func (p *Publisher) Subjects(ev ports.LoggedEvent) []string {
	kind := string(ev.Event.Kind)
	if !ev.Event.Private() {
		return []string{strings.Join([]string{p.prefix, token(ev.GameID), kind}, ".")}
	}
	subjects := make([]string, 0, len(ev.Event.Recipients))
	for _, id := range ev.Event.Recipients {
		subjects = append(subjects, strings.Join([]string{p.prefix, token(ev.GameID), "player", token(id), kind}, "."))
	}
	return subjects
}

// token makes s safe to use as one subject token.
func token(s string) string {
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
}
