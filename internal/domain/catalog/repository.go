package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// ProductFilter defines filtering options for product queries
type ProductFilter struct {
	shared.Filter
	Active   *bool
	LowStock bool
}

// ProductRepository persists products. Soft deleted products are never returned.
type ProductRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	// FindByIDsForUpdate locks the rows for the rest of the transaction where the dialect supports it
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Product, error)
	FindByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*Product, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ProductFilter) ([]Product, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ProductFilter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, product *Product) error
	SaveBatch(ctx context.Context, products []*Product) error
}
