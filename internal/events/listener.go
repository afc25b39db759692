package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "club_service/internal/lib/logger"

	"github.com/jackc/pgx/v5"
)

const maxReconnectBackoff = 30 * time.Second

// Event is one parsed change notification. Context is the dispatch key;
// Payload keeps the raw JSON so each handler decodes its own fields.
type Event struct {
	Context string
	Payload []byte
}

var errMissingContext = errors.New("payload has no event field")

// Listener bridges the store's change-notification channel to the
// dispatcher. It holds a dedicated connection (the pool is no use for
// LISTEN) and must run as a single instance: the channel fans out to every
// subscriber, so a second listener would duplicate emails.
type Listener struct {
	log         *slog.Logger
	dsn         string
	channel     string
	waitTimeout time.Duration
	dispatcher  *Dispatcher
}

func NewListener(log *slog.Logger, dsn, channel string, waitTimeout time.Duration, d *Dispatcher) *Listener {
	return &Listener{
		log:         log,
		dsn:         dsn,
		channel:     channel,
		waitTimeout: waitTimeout,
		dispatcher:  d,
	}
}

// Run blocks until ctx is cancelled, reconnecting with capped backoff when
// the connection drops. Notifications emitted while disconnected are lost;
// delivery is best-effort by design.
func (l *Listener) Run(ctx context.Context) error {
	backoff := time.Second

	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.log.Error("listener connection lost, reconnecting", sl.Err(err),
			slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnectBackoff {
			backoff = maxReconnectBackoff
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	const op = "events.Listener.listen"

	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("%s: connect: %w", op, err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize())
	if err != nil {
		return fmt.Errorf("%s: listen: %w", op, err)
	}

	l.log.Info("listening for store events", slog.String("channel", l.channel))

	for {
		// bounded wait so the loop can observe cancellation
		waitCtx, cancel := context.WithTimeout(ctx, l.waitTimeout)
		notification, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}

			return fmt.Errorf("%s: wait: %w", op, err)
		}

		l.handle(ctx, notification.Payload)
	}
}

// handle parses and dispatches one payload. A malformed payload is logged
// and skipped; it must never kill the loop.
func (l *Listener) handle(ctx context.Context, payload string) {
	ev, err := parseEvent(payload)
	if err != nil {
		l.log.Error("malformed event payload, skipping", sl.Err(err))
		return
	}

	l.dispatcher.Dispatch(ctx, ev)
}

func parseEvent(payload string) (Event, error) {
	var head struct {
		Event string `json:"event"`
	}

	if err := json.Unmarshal([]byte(payload), &head); err != nil {
		return Event{}, err
	}

	if head.Event == "" {
		return Event{}, errMissingContext
	}

	return Event{
		Context: head.Event,
		Payload: []byte(payload),
	}, nil
}
