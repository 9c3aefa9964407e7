package report

import (
	"context"
	"fmt"

	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CacheInvalidationHandler drops a tenant's cached reports whenever its
// ledger changes, so no cached report outlives the write that made it stale
type CacheInvalidationHandler struct {
	cache  Cache
	logger *zap.Logger
}

// NewCacheInvalidationHandler creates a handler for every ledger event
func NewCacheInvalidationHandler(cache Cache, logger *zap.Logger) *CacheInvalidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheInvalidationHandler{cache: cache, logger: logger}
}

// EventTypes returns the sale and installment events that change report figures
func (h *CacheInvalidationHandler) EventTypes() []string {
	return append([]string{
		sales.EventTypeSaleCompleted,
		sales.EventTypeSaleCancelled,
		billing.EventTypeInstallmentOverdue,
	}, billing.LedgerEventTypes()...)
}

// Handle invalidates the cache of the event's tenant
func (h *CacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.cache.Invalidate(ctx, event.TenantID()); err != nil {
		h.logger.Error("Failed to invalidate report cache",
			zap.String("tenant_id", event.TenantID().String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err))
		return fmt.Errorf("invalidate report cache: %w", err)
	}
	h.logger.Debug("Report cache invalidated",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("event_type", event.EventType()))
	return nil
}

var _ shared.EventHandler = (*CacheInvalidationHandler)(nil)
