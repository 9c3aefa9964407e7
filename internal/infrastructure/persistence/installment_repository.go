package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInstallmentRepository implements billing.InstallmentRepository.
// Installments always load with their payments; the aggregate computes its
// own balance from them.
type GormInstallmentRepository struct {
	db *gorm.DB
}

func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// ledger selects installments as alias i joined with their live paid sum as p
func (r *GormInstallmentRepository) ledger(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("installments AS i").
		Joins("LEFT JOIN "+paidSubquery+" p ON p.installment_id = i.id").
		Where("i.tenant_id = ?", tenantID)
}

func (r *GormInstallmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Installment, error) {
	var model models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at, created_at") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormInstallmentRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]billing.Installment, error) {
	return r.find(r.ledger(ctx, tenantID).Where("i.sale_id = ?", saleID).Order("i.number"))
}

func (r *GormInstallmentRepository) FindOpenByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]billing.Installment, error) {
	return r.find(r.ledger(ctx, tenantID).
		Where("i.customer_id = ? AND i.status <> ?", customerID, billing.InstallmentStatusCancelled).
		Where(remainingExpr + " > 0").
		Order("i.due_date, i.number"))
}

func (r *GormInstallmentRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]billing.Installment, error) {
	return r.find(r.ledger(ctx, tenantID).Where("i.customer_id = ?", customerID).Order("i.due_date, i.number"))
}

func (r *GormInstallmentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InstallmentFilter) ([]billing.Installment, error) {
	page := filter.Filter
	if page.OrderBy == "" {
		page.OrderBy, page.OrderDir = "due_date", "asc"
	}
	page.OrderBy = "i." + ValidateSortField(page.OrderBy, InstallmentSortFields, "due_date")
	q := applyPaging(r.filtered(ctx, tenantID, filter), page, prefixed(InstallmentSortFields, "i."), "i.due_date")
	return r.find(q)
}

func (r *GormInstallmentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InstallmentFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

func (r *GormInstallmentRepository) FindByPaymentID(ctx context.Context, tenantID, paymentID uuid.UUID) (*billing.Installment, error) {
	var payment models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, paymentID).
		First(&payment).Error; err != nil {
		return nil, translateError(err)
	}
	return r.FindByIDForTenant(ctx, tenantID, payment.InstallmentID)
}

// SaveWithLock saves only if the stored version is the one the aggregate was
// loaded with. Payment rows missing from the aggregate are deleted, which is
// safe only because a concurrent writer would have bumped the version.
func (r *GormInstallmentRepository) SaveWithLock(ctx context.Context, installment *billing.Installment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveVersioned(tx, installment)
	})
}

// CreateBatch inserts a new payment plan
func (r *GormInstallmentRepository) CreateBatch(ctx context.Context, installments []*billing.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, inst := range installments {
			model := models.InstallmentModelFromDomain(inst)
			if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
				return err
			}
			if len(model.Payments) > 0 {
				if err := tx.Create(&model.Payments).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SaveBatchWithLock saves loaded installments with the version check of
// SaveWithLock. One stale installment fails the whole batch.
func (r *GormInstallmentRepository) SaveBatchWithLock(ctx context.Context, installments []*billing.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, inst := range installments {
			if err := saveVersioned(tx, inst); err != nil {
				return err
			}
		}
		return nil
	})
}

// CustomerDebt loads the customer's installments with payments and lets the
// domain sum them, so the API and the aggregate share one formula.
func (r *GormInstallmentRepository) CustomerDebt(ctx context.Context, tenantID, customerID uuid.UUID, asOf time.Time) (*billing.CustomerDebt, error) {
	installments, err := r.FindByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	debt := billing.SummarizeDebt(customerID, installments, asOf)
	return &debt, nil
}

// MarkOverdue rewrites the status projection of open installments in one statement
func (r *GormInstallmentRepository) MarkOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int64, error) {
	day := dayParam(asOf)
	result := r.db.WithContext(ctx).Model(&models.InstallmentModel{}).
		Where("tenant_id = ? AND status IN ?", tenantID, billing.OpenStatuses()).
		Where("status <> ("+statusExpr+")", day).
		Updates(map[string]any{
			"status":     gorm.Expr(statusExpr, day),
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *GormInstallmentRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter billing.InstallmentFilter) *gorm.DB {
	q := r.ledger(ctx, tenantID)
	asOf := filter.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	day := dayParam(asOf)

	if filter.CustomerID != nil {
		q = q.Where("i.customer_id = ?", *filter.CustomerID)
	}
	if filter.SaleID != nil {
		q = q.Where("i.sale_id = ?", *filter.SaleID)
	}
	if filter.DueFrom != nil {
		q = q.Where("i.due_date >= ?", dayParam(*filter.DueFrom))
	}
	if filter.DueTo != nil {
		q = q.Where("i.due_date <= ?", dayParam(*filter.DueTo))
	}
	if filter.Status != nil {
		q = whereLiveStatus(q, *filter.Status, day)
	}
	if filter.OverdueOnly {
		q = q.Where("i.status <> ? AND i.due_date < ? AND "+remainingExpr+" > 0",
			billing.InstallmentStatusCancelled, day)
	}
	return q
}

// whereLiveStatus filters on the status derived from the payment sum rather
// than the stored projection, which may lag until the next job run.
func whereLiveStatus(q *gorm.DB, status billing.InstallmentStatus, day time.Time) *gorm.DB {
	if status == billing.InstallmentStatusCancelled {
		return q.Where("i.status = ?", status)
	}
	q = q.Where("i.status <> ?", billing.InstallmentStatusCancelled)
	switch status {
	case billing.InstallmentStatusPaid:
		return q.Where(remainingExpr + " = 0")
	case billing.InstallmentStatusPartial:
		return q.Where(paidExpr + " > 0 AND " + remainingExpr + " > 0")
	case billing.InstallmentStatusOverdue:
		return q.Where(paidExpr+" = 0 AND i.due_date < ?", day)
	default:
		return q.Where(paidExpr+" = 0 AND i.due_date >= ?", day)
	}
}

// find scans installment rows and attaches their payments
func (r *GormInstallmentRepository) find(q *gorm.DB) ([]billing.Installment, error) {
	var rows []models.InstallmentModel
	if err := q.Select("i.*").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []billing.Installment{}, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	var payments []models.PaymentModel
	if err := r.db.WithContext(q.Statement.Context).
		Where("installment_id IN ?", ids).
		Order("paid_at, created_at").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	byInstallment := make(map[uuid.UUID][]models.PaymentModel, len(rows))
	for _, p := range payments {
		byInstallment[p.InstallmentID] = append(byInstallment[p.InstallmentID], p)
	}

	out := make([]billing.Installment, len(rows))
	for i := range rows {
		rows[i].Payments = byInstallment[rows[i].ID]
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

func saveVersioned(tx *gorm.DB, installment *billing.Installment) error {
	model := models.InstallmentModelFromDomain(installment)
	result := tx.Model(&models.InstallmentModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", installment.ID, installment.TenantID, installment.Version-1).
		Omit(clause.Associations).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return syncPayments(tx, model)
}

// syncPayments deletes reversed payments and inserts new ones. Payment rows
// are never updated in place.
func syncPayments(tx *gorm.DB, model *models.InstallmentModel) error {
	del := tx.Where("installment_id = ?", model.ID)
	if len(model.Payments) > 0 {
		ids := make([]uuid.UUID, len(model.Payments))
		for i := range model.Payments {
			ids[i] = model.Payments[i].ID
		}
		del = del.Where("id NOT IN ?", ids)
	}
	if err := del.Delete(&models.PaymentModel{}).Error; err != nil {
		return err
	}
	if len(model.Payments) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Payments).Error
}

func prefixed(fields map[string]bool, prefix string) map[string]bool {
	out := make(map[string]bool, len(fields))
	for f := range fields {
		out[prefix+f] = true
	}
	return out
}

var _ billing.InstallmentRepository = (*GormInstallmentRepository)(nil)
