// Package outbox relays committed order events to the message broker.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/kafka"
)

const (
	DefaultInterval  = time.Second
	DefaultBatchSize = 100
)

// Relay polls the outbox and publishes pending events in commit order.
// Delivery is at least once: a crash between publish and mark resends the batch.
type Relay struct {
	source    ports.OutboxSource
	writer    kafka.MessageWriter
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRelay(source ports.OutboxSource, writer kafka.MessageWriter, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		writer:    writer,
		interval:  DefaultInterval,
		batchSize: DefaultBatchSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// RunOnce publishes one batch and reports how many events were sent.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	if r.source == nil || r.writer == nil {
		return 0, errors.New("outbox relay not configured")
	}
	events, err := r.source.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		msgs = append(msgs, toMessage(ev))
		ids = append(ids, ev.ID)
	}
	if err := kafka.Publish(ctx, r.writer, msgs...); err != nil {
		return 0, fmt.Errorf("publish %d events: %w", len(msgs), err)
	}
	if err := r.source.MarkPublished(ctx, ids, r.now()); err != nil {
		return 0, fmt.Errorf("mark events published: %w", err)
	}
	return len(events), nil
}

// Run drains the outbox on every tick until ctx is done. Batch failures are logged and retried next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		for {
			sent, err := r.RunOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.LogAttrs(ctx, slog.LevelError, "outbox relay batch failed", slog.String("error", err.Error()))
				break
			}
			if sent > 0 {
				r.logger.LogAttrs(ctx, slog.LevelInfo, "outbox events published", slog.Int("count", sent))
			}
			if sent < r.batchSize {
				break
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func toMessage(ev domain.Event) kafka.Message {
	return kafka.Message{
		Key:   fmt.Sprintf("%d", ev.AggregateID),
		Value: ev.Payload,
		Headers: map[string]string{
			"event-id":   ev.ID,
			"event-type": string(ev.Type),
		},
		Time: ev.OccurredAt,
	}
}
