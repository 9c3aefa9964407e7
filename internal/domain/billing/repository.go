package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
)

// InstallmentFilter defines filtering options for installment queries
type InstallmentFilter struct {
	shared.Filter
	CustomerID  *uuid.UUID
	SaleID      *uuid.UUID
	Status      *InstallmentStatus
	DueFrom     *time.Time
	DueTo       *time.Time
	OverdueOnly bool      // remaining > 0 and due before AsOf
	AsOf        time.Time // reference day for OverdueOnly, defaults to today
}

// InstallmentRepository persists installments together with their payments.
// Balances returned by aggregate methods are computed from the payments table
// at query time.
type InstallmentRepository interface {
	// FindByIDForTenant loads an installment with all its payments
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Installment, error)

	FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]Installment, error)

	// FindOpenByCustomer returns non-cancelled installments with a remaining balance, due date ascending
	FindOpenByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]Installment, error)

	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]Installment, error)

	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InstallmentFilter) ([]Installment, error)

	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InstallmentFilter) (int64, error)

	// FindByPaymentID loads the installment owning paymentID
	FindByPaymentID(ctx context.Context, tenantID, paymentID uuid.UUID) (*Installment, error)

	// CreateBatch inserts a new payment plan
	CreateBatch(ctx context.Context, installments []*Installment) error

	// SaveWithLock saves with an optimistic version check and synchronizes the payment rows.
	// Returns shared.ErrConcurrencyConflict when the installment changed since it was loaded.
	SaveWithLock(ctx context.Context, installment *Installment) error

	// SaveBatchWithLock is SaveWithLock for several installments in one transaction
	SaveBatchWithLock(ctx context.Context, installments []*Installment) error

	// CustomerDebt aggregates a customer's balances from live payment sums
	CustomerDebt(ctx context.Context, tenantID, customerID uuid.UUID, asOf time.Time) (*CustomerDebt, error)

	// MarkOverdue refreshes the status column of every open installment of the tenant.
	// Returns the number of rows whose status changed.
	MarkOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int64, error)
}
