package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/report"
	"gorm.io/datatypes"
)

// ReportSnapshotModel keeps the latest precomputed report per tenant and kind
type ReportSnapshotModel struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_report_snapshot_tenant_kind,priority:1"`
	Kind        report.SnapshotKind `gorm:"type:varchar(30);not null;uniqueIndex:idx_report_snapshot_tenant_kind,priority:2"`
	Payload     datatypes.JSON      `gorm:"not null"`
	GeneratedAt time.Time           `gorm:"not null"`
}

func (ReportSnapshotModel) TableName() string {
	return "report_snapshots"
}

// ToDomain converts the model to a Snapshot
func (m *ReportSnapshotModel) ToDomain() *report.Snapshot {
	return &report.Snapshot{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Kind:        m.Kind,
		Payload:     []byte(m.Payload),
		GeneratedAt: m.GeneratedAt,
	}
}

// ReportSnapshotModelFromDomain builds the model of s
func ReportSnapshotModelFromDomain(s *report.Snapshot) *ReportSnapshotModel {
	return &ReportSnapshotModel{
		ID:          s.ID,
		TenantID:    s.TenantID,
		Kind:        s.Kind,
		Payload:     datatypes.JSON(s.Payload),
		GeneratedAt: s.GeneratedAt.UTC(),
	}
}

// All lists every model for AutoMigrate in tests and local sqlite runs
func All() []any {
	return []any{
		&CompanyModel{},
		&UserModel{},
		&ProductModel{},
		&CustomerModel{},
		&SaleModel{},
		&SaleItemModel{},
		&InstallmentModel{},
		&PaymentModel{},
		&ReportSnapshotModel{},
	}
}
