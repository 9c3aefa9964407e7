package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCompanyRepository implements identity.CompanyRepository
type GormCompanyRepository struct {
	db *gorm.DB
}

func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormCompanyRepository) FindByDocument(ctx context.Context, document string) (*identity.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).First(&model, "document = ?", document).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormCompanyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Company, error) {
	var rows []models.CompanyModel
	q := applyPaging(r.search(ctx, filter), filter, CompanySortFields, "created_at")
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]identity.Company, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

func (r *GormCompanyRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.search(ctx, filter).Count(&count).Error
	return count, err
}

func (r *GormCompanyRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.CompanyModel{}).
		Where("active = ?", true).
		Order("created_at").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *GormCompanyRepository) Save(ctx context.Context, company *identity.Company) error {
	return r.db.WithContext(ctx).Save(models.CompanyModelFromDomain(company)).Error
}

func (r *GormCompanyRepository) search(ctx context.Context, filter shared.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.CompanyModel{})
	if filter.Search != "" {
		p := searchPattern(filter.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(trade_name) LIKE ? OR document LIKE ?", p, p, p)
	}
	return q
}

var _ identity.CompanyRepository = (*GormCompanyRepository)(nil)
