package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InstallmentBalancesView is created by the migrations on PostgreSQL only
const InstallmentBalancesView = "mv_installment_balances"

// GormSnapshotRepository implements report.SnapshotRepository
type GormSnapshotRepository struct {
	db *gorm.DB
}

func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Upsert replaces the tenant's snapshot of the same kind
func (r *GormSnapshotRepository) Upsert(ctx context.Context, snapshot *report.Snapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "generated_at"}),
		}).
		Create(models.ReportSnapshotModelFromDomain(snapshot)).Error
}

func (r *GormSnapshotRepository) Latest(ctx context.Context, tenantID uuid.UUID, kind report.SnapshotKind) (*report.Snapshot, error) {
	var model models.ReportSnapshotModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND kind = ?", tenantID, kind).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// RefreshMaterializedViews refreshes the balance view on PostgreSQL and is a no-op elsewhere
func (r *GormSnapshotRepository) RefreshMaterializedViews(ctx context.Context) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Exec("REFRESH MATERIALIZED VIEW CONCURRENTLY " + InstallmentBalancesView).Error; err != nil {
		return fmt.Errorf("refresh %s: %w", InstallmentBalancesView, err)
	}
	return nil
}

var _ report.SnapshotRepository = (*GormSnapshotRepository)(nil)
