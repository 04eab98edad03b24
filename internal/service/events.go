package service

import (
	"context"
	"log/slog"

	"community_hub/internal/pkg"
)

// EventPublisher emits domain events; *pkg.KafkaProducer and pkg.LogPublisher satisfy it.
type EventPublisher interface {
	Publish(ctx context.Context, ev pkg.Event) error
}

// publish never fails the caller: the write it reports on has already committed.
func publish(ctx context.Context, p EventPublisher, logger *slog.Logger, ev pkg.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		logger.WarnContext(ctx, "event publish failed",
			slog.String("event", ev.Type),
			slog.String("aggregate_id", ev.AggregateID),
			slog.Any("err", err))
	}
}
