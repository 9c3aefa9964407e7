// Package partner manages the customers a company sells to.
package partner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appbilling "github.com/retailpos/backend/internal/application/billing"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// CustomerService handles customer operations
type CustomerService struct {
	customerRepo    partner.CustomerRepository
	installmentRepo billing.InstallmentRepository
	locations       appshared.TenantLocations
	logger          *zap.Logger
	now             func() time.Time
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, installmentRepo billing.InstallmentRepository, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customerRepo:    customerRepo,
		installmentRepo: installmentRepo,
		logger:          logger,
		now:             time.Now,
	}
}

// SetClock overrides the time source
func (s *CustomerService) SetClock(now func() time.Time) {
	s.now = now
}

// SetLocations counts overdue days in the tenant's timezone
func (s *CustomerService) SetLocations(locations appshared.TenantLocations) {
	s.locations = locations
}

// Create registers a customer
func (s *CustomerService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(tenantID, req.Name)
	if err != nil {
		return nil, err
	}
	customer.SetCreatedBy(userID)
	if err := s.applyDocument(ctx, customer, req.Document); err != nil {
		return nil, err
	}
	if err := customer.SetContact(req.Email, req.Phone); err != nil {
		return nil, err
	}
	customer.SetAddress(req.Address, req.City, req.State)
	if req.CreditLimit != nil {
		if err := customer.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}
	customer.SetNotes(req.Notes)

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// GetByID returns a customer
func (s *CustomerService) GetByID(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// List returns customers matching the filter
func (s *CustomerService) List(ctx context.Context, tenantID uuid.UUID, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	domainFilter := partner.CustomerFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
		Active: filter.Active,
	}
	if filter.OrderBy == "" {
		domainFilter.OrderBy = "name"
		domainFilter.OrderDir = "asc"
	}
	list, err := s.customerRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.customerRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToCustomerResponses(list), total, nil
}

// Update changes a customer's data
func (s *CustomerService) Update(ctx context.Context, tenantID, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if err := customer.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Document != nil && *req.Document != customer.Document {
		if err := s.applyDocument(ctx, customer, *req.Document); err != nil {
			return nil, err
		}
	}
	if req.Email != nil || req.Phone != nil {
		email, phone := customer.Email, customer.Phone
		if req.Email != nil {
			email = *req.Email
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if err := customer.SetContact(email, phone); err != nil {
			return nil, err
		}
	}
	if req.Address != nil || req.City != nil || req.State != nil {
		address, city, state := customer.Address, customer.City, customer.State
		if req.Address != nil {
			address = *req.Address
		}
		if req.City != nil {
			city = *req.City
		}
		if req.State != nil {
			state = *req.State
		}
		customer.SetAddress(address, city, state)
	}
	if req.CreditLimit != nil {
		if err := customer.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		customer.SetNotes(*req.Notes)
	}
	if req.Active != nil {
		if *req.Active {
			customer.Activate()
		} else {
			customer.Deactivate()
		}
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Delete soft deletes a customer. A customer who still owes money is kept.
func (s *CustomerService) Delete(ctx context.Context, tenantID, customerID uuid.UUID) error {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return err
	}
	debt, err := s.installmentRepo.CustomerDebt(ctx, tenantID, customerID, s.now())
	if err != nil {
		return err
	}
	if err := customer.SoftDelete(debt.Outstanding); err != nil {
		return err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return err
	}
	s.logger.Info("Customer deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customerID.String()))
	return nil
}

// GetDebt returns the customer's position computed from live payment sums
func (s *CustomerService) GetDebt(ctx context.Context, tenantID, customerID uuid.UUID) (*appbilling.CustomerDebtResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	now, err := appshared.LocalNow(ctx, s.locations, tenantID, s.now())
	if err != nil {
		return nil, err
	}
	debt, err := s.installmentRepo.CustomerDebt(ctx, tenantID, customerID, now)
	if err != nil {
		return nil, err
	}
	resp := appbilling.ToCustomerDebtResponse(debt, customer.Name, now)
	return &resp, nil
}

// applyDocument sets the CPF/CNPJ and rejects a document already used by
// another customer of the tenant.
func (s *CustomerService) applyDocument(ctx context.Context, customer *partner.Customer, document string) error {
	if document == "" {
		return customer.SetDocument("")
	}
	digits := valueobject.OnlyDigits(document)
	existing, err := s.customerRepo.FindByDocument(ctx, customer.TenantID, digits)
	switch {
	case err == nil && existing.ID != customer.ID:
		return shared.NewDomainError("ALREADY_EXISTS", "Customer with this document already exists")
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		return err
	}
	return customer.SetDocument(document)
}
