package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// CompanyRepository persists companies
type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	FindByDocument(ctx context.Context, document string) (*Company, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Company, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// FindActiveIDs lists tenants for background jobs
	FindActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	Save(ctx context.Context, company *Company) error
}

// UserRepository persists users
type UserRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	// FindByUsername searches across tenants; usernames are globally unique
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Save(ctx context.Context, user *User) error
}
