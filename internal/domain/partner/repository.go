package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// CustomerFilter defines filtering options for customer queries
type CustomerFilter struct {
	shared.Filter
	Active *bool
}

// CustomerRepository persists customers. Soft deleted customers are never returned.
type CustomerRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindByDocument(ctx context.Context, tenantID uuid.UUID, document string) (*Customer, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter CustomerFilter) ([]Customer, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter CustomerFilter) (int64, error)
	Save(ctx context.Context, customer *Customer) error
}
