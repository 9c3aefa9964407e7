package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// SaleFilter defines filtering options for sale queries
type SaleFilter struct {
	shared.Filter
	CustomerID    *uuid.UUID
	SellerID      *uuid.UUID
	PaymentMethod *PaymentMethod
	Status        *SaleStatus
	From          *time.Time
	To            *time.Time
}

// SaleRepository persists sales with their items
type SaleRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*Sale, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter SaleFilter) ([]Sale, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter SaleFilter) (int64, error)
	Save(ctx context.Context, sale *Sale) error
	SaveWithLock(ctx context.Context, sale *Sale) error
	// GenerateSaleNumber returns the next VD-YYYYMMDD-NNNNN number for the tenant
	GenerateSaleNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error)
	CountByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (int64, error)
}
