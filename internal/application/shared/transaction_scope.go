package shared

import (
	"context"

	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/sales"
)

// TransactionScope runs a unit of work in one database transaction. The
// function's error rolls everything back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are repositories bound to the same transaction.
// A sale, its installments and the stock movement commit together; a lump
// debt payment commits all touched installments together.
type TransactionalRepositories interface {
	Sales() sales.SaleRepository
	Installments() billing.InstallmentRepository
	Products() catalog.ProductRepository
	Customers() partner.CustomerRepository
}

// NoOpTransactionScope executes without a transaction. Used by unit tests.
type NoOpTransactionScope struct {
	SaleRepo        sales.SaleRepository
	InstallmentRepo billing.InstallmentRepository
	ProductRepo     catalog.ProductRepository
	CustomerRepo    partner.CustomerRepository
}

// Execute calls fn with the wrapped repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Sales() sales.SaleRepository                 { return s.SaleRepo }
func (s *NoOpTransactionScope) Installments() billing.InstallmentRepository { return s.InstallmentRepo }
func (s *NoOpTransactionScope) Products() catalog.ProductRepository         { return s.ProductRepo }
func (s *NoOpTransactionScope) Customers() partner.CustomerRepository       { return s.CustomerRepo }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
