package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CompanyService manages the tenant's own profile
type CompanyService struct {
	companyRepo identity.CompanyRepository
	logger      *zap.Logger
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(companyRepo identity.CompanyRepository, logger *zap.Logger) *CompanyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{companyRepo: companyRepo, logger: logger}
}

// Get returns the company
func (s *CompanyService) Get(ctx context.Context, tenantID uuid.UUID) (*CompanyResponse, error) {
	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := ToCompanyResponse(company)
	return &resp, nil
}

// IsActive reports whether the company may use the API. A missing company is inactive.
func (s *CompanyService) IsActive(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return company.Active, nil
}

// List returns every company. Reserved for platform operators.
func (s *CompanyService) List(ctx context.Context, page, pageSize int, search string) ([]CompanyResponse, int64, error) {
	filter := shared.Filter{Page: page, PageSize: pageSize, Search: search, OrderBy: "name", OrderDir: "asc"}.Normalize()
	companies, err := s.companyRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.companyRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]CompanyResponse, len(companies))
	for i := range companies {
		out[i] = ToCompanyResponse(&companies[i])
	}
	return out, total, nil
}

// Update changes the profile, document, PIX settings and timezone
func (s *CompanyService) Update(ctx context.Context, tenantID uuid.UUID, req UpdateCompanyRequest) (*CompanyResponse, error) {
	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	name, trade, email, phone := company.Name, company.TradeName, company.Email, company.Phone
	if req.Name != nil {
		name = *req.Name
	}
	if req.TradeName != nil {
		trade = *req.TradeName
	}
	if req.Email != nil {
		email = *req.Email
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if err := company.UpdateProfile(name, trade, email, phone); err != nil {
		return nil, err
	}

	if req.Document != nil && *req.Document != company.Document {
		if err := company.SetDocument(*req.Document); err != nil {
			return nil, err
		}
		if company.Document != "" {
			other, err := s.companyRepo.FindByDocument(ctx, company.Document)
			switch {
			case err == nil && other.ID != company.ID:
				return nil, shared.NewDomainError("ALREADY_EXISTS", "A company with this document is already registered")
			case err != nil && !errors.Is(err, shared.ErrNotFound):
				return nil, err
			}
		}
	}

	if req.PixKey != nil || req.MerchantCity != nil {
		key, city := company.PixKey, company.MerchantCity
		if req.PixKey != nil {
			key = *req.PixKey
		}
		if req.MerchantCity != nil {
			city = *req.MerchantCity
		}
		if err := company.SetPixSettings(key, city); err != nil {
			return nil, err
		}
	}
	if req.Timezone != nil {
		if err := company.SetTimezone(*req.Timezone); err != nil {
			return nil, err
		}
	}

	if err := s.companyRepo.Save(ctx, company); err != nil {
		return nil, err
	}
	resp := ToCompanyResponse(company)
	return &resp, nil
}

// Deactivate blocks every login of the company. Data is kept.
func (s *CompanyService) Deactivate(ctx context.Context, tenantID uuid.UUID) error {
	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := company.Deactivate(); err != nil {
		return err
	}
	if err := s.companyRepo.Save(ctx, company); err != nil {
		return err
	}
	s.logger.Warn("Company deactivated", zap.String("tenant_id", tenantID.String()))
	return nil
}
