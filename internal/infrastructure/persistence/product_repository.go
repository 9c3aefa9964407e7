package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository.
// Soft deleted products are invisible to every query.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) scoped(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID)
}

func (r *GormProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.scoped(ctx, tenantID).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	return r.findByIDs(r.scoped(ctx, tenantID), ids)
}

func (r *GormProductRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	return r.findByIDs(r.scoped(ctx, tenantID).Clauses(clause.Locking{Strength: "UPDATE"}), ids)
}

func (r *GormProductRepository) findByIDs(q *gorm.DB, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := q.Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

func (r *GormProductRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.scoped(ctx, tenantID).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormProductRepository) FindByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.scoped(ctx, tenantID).Where("barcode = ?", strings.TrimSpace(barcode)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter catalog.ProductFilter) ([]catalog.Product, error) {
	page := filter.Filter
	if page.OrderBy == "" {
		page.OrderBy, page.OrderDir = "name", "asc"
	}
	var rows []models.ProductModel
	q := applyPaging(r.filtered(ctx, tenantID, filter), page, ProductSortFields, "name")
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

func (r *GormProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter catalog.ProductFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

func (r *GormProductRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	err := r.scoped(ctx, tenantID).Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).Count(&count).Error
	return count > 0, err
}

func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error
}

func (r *GormProductRepository) SaveBatch(ctx context.Context, products []*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	rows := make([]*models.ProductModel, len(products))
	for i, p := range products {
		rows[i] = models.ProductModelFromDomain(p)
	}
	return r.db.WithContext(ctx).Save(rows).Error
}

func (r *GormProductRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter catalog.ProductFilter) *gorm.DB {
	q := r.scoped(ctx, tenantID)
	if filter.Search != "" {
		p := searchPattern(filter.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR barcode LIKE ?", p, p, p)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}
	if filter.LowStock {
		q = q.Where("min_stock > 0 AND stock_quantity <= min_stock")
	}
	return q
}

func toProducts(rows []models.ProductModel) []catalog.Product {
	out := make([]catalog.Product, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
