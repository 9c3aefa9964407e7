// Package jobs runs the periodic per-tenant maintenance: the overdue status
// refresh and the report snapshot refresh.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// OverdueMarker refreshes the stored installment statuses of a tenant
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int64, error)
}

// SnapshotRefresher recomputes persisted report snapshots
type SnapshotRefresher interface {
	RefreshSnapshots(ctx context.Context, tenantID uuid.UUID, asOf time.Time) error
	RefreshMaterializedViews(ctx context.Context) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// MaintenanceExecutor implements scheduler.JobExecutor
type MaintenanceExecutor struct {
	overdue OverdueMarker
	reports SnapshotRefresher
	logger  *zap.Logger
}

func NewMaintenanceExecutor(overdue OverdueMarker, reports SnapshotRefresher, logger *zap.Logger) *MaintenanceExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceExecutor{overdue: overdue, reports: reports, logger: logger}
}

// Execute runs one job
func (e *MaintenanceExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	switch job.Type {
	case scheduler.JobTypeMarkOverdue:
		return e.markOverdue(ctx, job)
	case scheduler.JobTypeRefreshSnapshots:
		if err := e.reports.RefreshSnapshots(ctx, job.TenantID, job.AsOf); err != nil {
			return fmt.Errorf("refresh snapshots: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", scheduler.ErrInvalidJobType, job.Type)
	}
}

// markOverdue updates statuses in bulk without domain events, so the
// report cache is dropped here when anything changed
func (e *MaintenanceExecutor) markOverdue(ctx context.Context, job *scheduler.Job) error {
	changed, err := e.overdue.MarkOverdue(ctx, job.TenantID, job.AsOf)
	if err != nil {
		return err
	}
	if changed == 0 {
		return nil
	}
	if err := e.reports.Invalidate(ctx, job.TenantID); err != nil {
		e.logger.Warn("Failed to invalidate reports after overdue refresh",
			zap.String("tenant_id", job.TenantID.String()),
			zap.Error(err))
	}
	return nil
}

// BeforeRun refreshes database side aggregates once per trigger run
func (e *MaintenanceExecutor) BeforeRun(ctx context.Context) error {
	return e.reports.RefreshMaterializedViews(ctx)
}

var _ scheduler.JobExecutor = (*MaintenanceExecutor)(nil)
