package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleNumberPrefix starts every sale number, e.g. VD-20240115-00001
const SaleNumberPrefix = "VD"

// GormSaleRepository implements sales.SaleRepository
type GormSaleRepository struct {
	db *gorm.DB
}

func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormSaleRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ? AND sale_number = ?", tenantID, strings.ToUpper(saleNumber)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, error) {
	page := filter.Filter
	if page.OrderBy == "" {
		page.OrderBy = "sold_at"
	}
	var rows []models.SaleModel
	q := applyPaging(r.filtered(ctx, tenantID, filter), page, SaleSortFields, "sold_at").Preload("Items")
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sales.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

func (r *GormSaleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

func (r *GormSaleRepository) CountByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Count(&count).Error
	return count, err
}

// Save writes the sale and its items. Items are immutable once sold, so
// existing rows are left untouched.
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	model := models.SaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return saveSaleItems(tx, model.Items)
	})
}

// SaveWithLock updates the sale only if nobody saved it since it was loaded
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	model := models.SaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SaleModel{}).
			Where("id = ? AND tenant_id = ? AND version = ?", sale.ID, sale.TenantID, sale.Version-1).
			Omit(clause.Associations).
			Select("*").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return saveSaleItems(tx, model.Items)
	})
}

func saveSaleItems(tx *gorm.DB, items []models.SaleItemModel) error {
	if len(items) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&items).Error
}

// GenerateSaleNumber returns the next number of the day for the tenant.
// The unique index on (tenant_id, sale_number) rejects a concurrent duplicate.
func (r *GormSaleRepository) GenerateSaleNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", SaleNumberPrefix, at.Format("20060102"))
	var last string
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("tenant_id = ? AND sale_number LIKE ?", tenantID, prefix+"%").
		Select("COALESCE(MAX(sale_number), '')").
		Scan(&last).Error
	if err != nil {
		return "", fmt.Errorf("generate sale number: %w", err)
	}
	next := 1
	if last != "" {
		seq, convErr := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if convErr != nil {
			return "", fmt.Errorf("generate sale number: malformed %q: %w", last, convErr)
		}
		next = seq + 1
	}
	return fmt.Sprintf("%s%05d", prefix, next), nil
}

func (r *GormSaleRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		p := searchPattern(filter.Search)
		q = q.Where("LOWER(sale_number) LIKE ? OR LOWER(customer_name) LIKE ?", p, p)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.SellerID != nil {
		q = q.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.PaymentMethod != nil {
		q = q.Where("payment_method = ?", *filter.PaymentMethod)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		q = q.Where("sold_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("sold_at < ?", filter.To.UTC())
	}
	return q
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
