package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fridgegram/fridgegram/internal/repository"
)

// MessageTypePostUpdate tags broadcasts carrying refreshed rating aggregates.
const MessageTypePostUpdate = "post_update"

// Listener subscribes to the Postgres notification channel written by the
// rating transaction and relays each payload to the hub.
type Listener struct {
	pool   *pgxpool.Pool
	hub    *Hub
	logger *log.Logger
}

// NewListener constructs a Listener over the shared pool.
func NewListener(pool *pgxpool.Pool, hub *Hub, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{pool: pool, hub: hub, logger: logger}
}

// Run holds a dedicated connection on LISTEN until ctx is canceled,
// reconnecting with a short delay after any failure.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Printf("feed: listener: %v, reconnecting", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	// The connection is hijacked so a LISTEN-ing connection never returns to
	// the pool in that state.
	raw := conn.Hijack()
	defer raw.Close(context.Background())

	if _, err := raw.Exec(ctx, "LISTEN "+repository.PostUpdatesChannel); err != nil {
		return err
	}

	for {
		notification, err := raw.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			return err
		}

		var update repository.PostUpdate
		if err := json.Unmarshal([]byte(notification.Payload), &update); err != nil {
			l.logger.Printf("feed: bad notification payload: %v", err)
			continue
		}
		l.hub.Broadcast(MessageTypePostUpdate, update)
	}
}
