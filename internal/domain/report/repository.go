package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReportRepository answers report queries directly from the ledger tables
type ReportRepository interface {
	OverdueEntries(ctx context.Context, tenantID uuid.UUID, asOf time.Time, customerID *uuid.UUID) ([]OverdueEntry, error)
	CustomerDebts(ctx context.Context, tenantID uuid.UUID, asOf time.Time, limit int) ([]CustomerDebtEntry, error)
	SalesSummary(ctx context.Context, tenantID uuid.UUID, period Period) (*SalesSummary, error)
	ProfitReport(ctx context.Context, tenantID uuid.UUID, period Period, topN int) (*ProfitReport, error)
	ReceivablesSummary(ctx context.Context, tenantID uuid.UUID, asOf time.Time, period Period) (*ReceivablesSummary, error)
	LowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// SnapshotKind names a persisted report snapshot
type SnapshotKind string

const (
	SnapshotDashboard   SnapshotKind = "dashboard"
	SnapshotReceivables SnapshotKind = "receivables"
)

// Snapshot is a report computed by the refresh job
type Snapshot struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Kind        SnapshotKind
	Payload     []byte
	GeneratedAt time.Time
}

// SnapshotRepository stores the latest snapshot per tenant and kind
type SnapshotRepository interface {
	Upsert(ctx context.Context, snapshot *Snapshot) error
	Latest(ctx context.Context, tenantID uuid.UUID, kind SnapshotKind) (*Snapshot, error)
	// RefreshMaterializedViews refreshes database side aggregates where the dialect supports them
	RefreshMaterializedViews(ctx context.Context) error
}
