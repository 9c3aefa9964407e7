package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements partner.CustomerRepository
type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) scoped(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID)
}

func (r *GormCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.scoped(ctx, tenantID).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormCustomerRepository) FindByDocument(ctx context.Context, tenantID uuid.UUID, document string) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.scoped(ctx, tenantID).Where("document = ?", document).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormCustomerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter partner.CustomerFilter) ([]partner.Customer, error) {
	page := filter.Filter
	if page.OrderBy == "" {
		page.OrderBy, page.OrderDir = "name", "asc"
	}
	var rows []models.CustomerModel
	if err := applyPaging(r.filtered(ctx, tenantID, filter), page, CustomerSortFields, "name").Find(&rows).Error; err != nil {
		return nil, err
	}
	customers := make([]partner.Customer, len(rows))
	for i := range rows {
		customers[i] = *rows[i].ToDomain()
	}
	return customers, nil
}

func (r *GormCustomerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter partner.CustomerFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, tenantID, filter).Count(&count).Error
	return count, err
}

func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return r.db.WithContext(ctx).Save(models.CustomerModelFromDomain(customer)).Error
}

func (r *GormCustomerRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter partner.CustomerFilter) *gorm.DB {
	q := r.scoped(ctx, tenantID)
	if filter.Search != "" {
		p := searchPattern(filter.Search)
		q = q.Where("LOWER(name) LIKE ? OR document LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", p, p, p, p)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}
	return q
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
