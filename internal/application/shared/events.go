package shared

import (
	"context"

	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PublishPending publishes and clears the pending events of aggregates after
// their transaction committed. The write already happened, so a publish failure
// is logged and not returned.
func PublishPending(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, aggregates ...shared.AggregateRoot) {
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil && logger != nil {
		logger.Error("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.String("first_event", events[0].EventType()),
			zap.Error(err))
	}
}
