package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/shared"
)

// TenantLocations resolves the timezone in which a tenant's calendar days are
// counted: due dates, overdue days and report periods.
type TenantLocations interface {
	Location(ctx context.Context, tenantID uuid.UUID) (*time.Location, error)
}

// CompanyLocations reads the company timezone. An unknown company counts in UTC.
type CompanyLocations struct {
	companies identity.CompanyRepository
}

func NewCompanyLocations(companies identity.CompanyRepository) *CompanyLocations {
	return &CompanyLocations{companies: companies}
}

func (l *CompanyLocations) Location(ctx context.Context, tenantID uuid.UUID) (*time.Location, error) {
	if l == nil || l.companies == nil {
		return time.UTC, nil
	}
	company, err := l.companies.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return time.UTC, nil
		}
		return nil, err
	}
	return company.Location(), nil
}

// LocalNow returns now in the tenant's timezone. Without locations now is returned unchanged.
func LocalNow(ctx context.Context, locations TenantLocations, tenantID uuid.UUID, now time.Time) (time.Time, error) {
	if locations == nil {
		return now, nil
	}
	loc, err := locations.Location(ctx, tenantID)
	if err != nil {
		return time.Time{}, err
	}
	return now.In(loc), nil
}
