// Package billing settles installments: partial payments, reversals, lump
// debt payments and overdue marking.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InstallmentService handles installment and payment operations
type InstallmentService struct {
	installmentRepo billing.InstallmentRepository
	customerRepo    partner.CustomerRepository
	txScope         appshared.TransactionScope
	idempotency     shared.IdempotencyStore
	idempotencyTTL  time.Duration
	eventPublisher  shared.EventPublisher
	locations       appshared.TenantLocations
	logger          *zap.Logger
	now             func() time.Time
}

// NewInstallmentService creates a new InstallmentService
func NewInstallmentService(
	installmentRepo billing.InstallmentRepository,
	customerRepo partner.CustomerRepository,
	txScope appshared.TransactionScope,
	logger *zap.Logger,
) *InstallmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstallmentService{
		installmentRepo: installmentRepo,
		customerRepo:    customerRepo,
		txScope:         txScope,
		idempotencyTTL:  shared.DefaultIdempotencyTTL,
		logger:          logger,
		now:             time.Now,
	}
}

// SetEventPublisher sets the publisher notified after each committed ledger write
func (s *InstallmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables Idempotency-Key handling for payment submissions
func (s *InstallmentService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetClock overrides the time source
func (s *InstallmentService) SetClock(now func() time.Time) {
	s.now = now
}

// SetLocations makes due and overdue days count in the tenant's timezone
func (s *InstallmentService) SetLocations(locations appshared.TenantLocations) {
	s.locations = locations
}

func (s *InstallmentService) localNow(ctx context.Context, tenantID uuid.UUID) (time.Time, error) {
	return appshared.LocalNow(ctx, s.locations, tenantID, s.now())
}

// GetByID returns an installment with its payments and live balances
func (s *InstallmentService) GetByID(ctx context.Context, tenantID, installmentID uuid.UUID) (*InstallmentResponse, error) {
	inst, err := s.installmentRepo.FindByIDForTenant(ctx, tenantID, installmentID)
	if err != nil {
		return nil, err
	}
	now, err := s.localNow(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := ToInstallmentResponse(inst, now)
	return &resp, nil
}

// List returns installments matching the filter. Status is matched against
// the status derived from the payments, not the stored projection.
func (s *InstallmentService) List(ctx context.Context, tenantID uuid.UUID, filter InstallmentListFilter) ([]InstallmentResponse, int64, error) {
	now, err := s.localNow(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	domainFilter := billing.InstallmentFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
		CustomerID:  filter.CustomerID,
		SaleID:      filter.SaleID,
		DueFrom:     filter.DueFrom,
		DueTo:       filter.DueTo,
		OverdueOnly: filter.OverdueOnly,
		AsOf:        now,
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "due_date"
		domainFilter.OrderDir = "asc"
	}
	if filter.Status != "" {
		status := billing.InstallmentStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown installment status %q", filter.Status))
		}
		domainFilter.Status = &status
	}

	items, err := s.installmentRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.installmentRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToInstallmentResponses(items, now), total, nil
}

// RegisterPayment books a payment against one installment. A non-empty
// idempotencyKey makes a retried submission fail with DUPLICATE_REQUEST
// instead of booking the amount twice.
func (s *InstallmentService) RegisterPayment(
	ctx context.Context,
	tenantID, userID, installmentID uuid.UUID,
	req RegisterPaymentRequest,
	idempotencyKey string,
) (*RegisterPaymentResponse, error) {
	release, err := s.claim(ctx, tenantID, idempotencyKey)
	if err != nil {
		return nil, err
	}

	resp, err := s.registerPayment(ctx, tenantID, userID, installmentID, req)
	if err != nil {
		release()
		return nil, err
	}
	return resp, nil
}

func (s *InstallmentService) registerPayment(
	ctx context.Context,
	tenantID, userID, installmentID uuid.UUID,
	req RegisterPaymentRequest,
) (*RegisterPaymentResponse, error) {
	now, err := s.localNow(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	input, err := s.paymentInput(req.Amount, req.PaidAt, req.Method, req.Reference, req.Notes, userID, now)
	if err != nil {
		return nil, err
	}

	inst, err := s.installmentRepo.FindByIDForTenant(ctx, tenantID, installmentID)
	if err != nil {
		return nil, err
	}
	payment, err := inst.RegisterPayment(input, now)
	if err != nil {
		return nil, err
	}
	if err := s.installmentRepo.SaveWithLock(ctx, inst); err != nil {
		return nil, err
	}
	appshared.PublishPending(ctx, s.eventPublisher, s.logger, inst)

	s.logger.Info("Payment registered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("installment_id", inst.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("remaining", inst.Remaining().StringFixed(2)),
		zap.String("status", string(inst.Status)))

	return &RegisterPaymentResponse{
		Payment:     ToPaymentResponse(payment),
		Installment: ToInstallmentResponse(inst, now),
	}, nil
}

// DeletePayment reverses a payment. The installment status is recomputed
// from the payments that remain.
func (s *InstallmentService) DeletePayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*InstallmentResponse, error) {
	now, err := s.localNow(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	inst, err := s.installmentRepo.FindByPaymentID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	removed, err := inst.RemovePayment(paymentID, now)
	if err != nil {
		return nil, err
	}
	if err := s.installmentRepo.SaveWithLock(ctx, inst); err != nil {
		return nil, err
	}
	appshared.PublishPending(ctx, s.eventPublisher, s.logger, inst)

	s.logger.Info("Payment removed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("installment_id", inst.ID.String()),
		zap.String("payment_id", removed.ID.String()),
		zap.String("amount", removed.Amount.StringFixed(2)))

	resp := ToInstallmentResponse(inst, now)
	return &resp, nil
}

// PayCustomerDebt allocates one amount over the customer's open installments,
// oldest due date first, booking one payment per touched installment. All
// payments commit together.
func (s *InstallmentService) PayCustomerDebt(
	ctx context.Context,
	tenantID, userID, customerID uuid.UUID,
	req PayDebtRequest,
	idempotencyKey string,
) (*DebtPaymentResponse, error) {
	release, err := s.claim(ctx, tenantID, idempotencyKey)
	if err != nil {
		return nil, err
	}

	resp, err := s.payCustomerDebt(ctx, tenantID, userID, customerID, req)
	if err != nil {
		release()
		return nil, err
	}
	return resp, nil
}

func (s *InstallmentService) payCustomerDebt(
	ctx context.Context,
	tenantID, userID, customerID uuid.UUID,
	req PayDebtRequest,
) (*DebtPaymentResponse, error) {
	now, err := s.localNow(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	base, err := s.paymentInput(req.Amount, req.PaidAt, req.Method, req.Reference, req.Notes, userID, now)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	var (
		touched  []*billing.Installment
		payments []PaymentResponse
	)
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		touched, payments = nil, nil

		open, err := repos.Installments().FindOpenByCustomer(ctx, tenantID, customerID)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*billing.Installment, len(open))
		candidates := make([]*billing.Installment, len(open))
		for idx := range open {
			candidates[idx] = &open[idx]
			byID[open[idx].ID] = &open[idx]
		}

		allocations, err := billing.AllocatePayment(candidates, base.Amount)
		if err != nil {
			return err
		}
		for _, alloc := range allocations {
			inst := byID[alloc.InstallmentID]
			input := base
			input.Amount = alloc.Amount
			payment, err := inst.RegisterPayment(input, now)
			if err != nil {
				return err
			}
			if err := repos.Installments().SaveWithLock(ctx, inst); err != nil {
				return err
			}
			touched = append(touched, inst)
			payments = append(payments, ToPaymentResponse(payment))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	aggregates := make([]shared.AggregateRoot, len(touched))
	for idx, inst := range touched {
		aggregates[idx] = inst
	}
	appshared.PublishPending(ctx, s.eventPublisher, s.logger, aggregates...)

	s.logger.Info("Customer debt payment registered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("amount", base.Amount.StringFixed(2)),
		zap.Int("installments", len(touched)))

	debt, err := s.installmentRepo.CustomerDebt(ctx, tenantID, customerID, now)
	if err != nil {
		return nil, err
	}
	return &DebtPaymentResponse{
		CustomerID: customerID,
		Amount:     base.Amount,
		Payments:   payments,
		Debt:       ToCustomerDebtResponse(debt, customer.Name, now),
	}, nil
}

// GetCustomerDebt returns the customer's position computed from live payment sums
func (s *InstallmentService) GetCustomerDebt(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerDebtResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	now, err := s.localNow(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	debt, err := s.installmentRepo.CustomerDebt(ctx, tenantID, customerID, now)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerDebtResponse(debt, customer.Name, now)
	return &resp, nil
}

// MarkOverdue refreshes the stored status of every open installment of the
// tenant. asOf is read on the tenant's calendar.
func (s *InstallmentService) MarkOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int64, error) {
	asOf, err := appshared.LocalNow(ctx, s.locations, tenantID, asOf)
	if err != nil {
		return 0, fmt.Errorf("resolve timezone for tenant %s: %w", tenantID, err)
	}
	changed, err := s.installmentRepo.MarkOverdue(ctx, tenantID, asOf)
	if err != nil {
		return 0, fmt.Errorf("mark overdue for tenant %s: %w", tenantID, err)
	}
	if changed > 0 {
		s.logger.Info("Installment statuses refreshed",
			zap.String("tenant_id", tenantID.String()),
			zap.Time("as_of", asOf),
			zap.Int64("changed", changed))
	}
	return changed, nil
}

func (s *InstallmentService) paymentInput(
	amount decimal.Decimal,
	paidAt *time.Time,
	method, reference, notes string,
	userID uuid.UUID,
	now time.Time,
) (billing.PaymentInput, error) {
	if !amount.IsPositive() {
		return billing.PaymentInput{}, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !valueobject.IsCentPrecise(amount) {
		return billing.PaymentInput{}, shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot have fractional cents")
	}
	input := billing.PaymentInput{
		Amount:    amount,
		Method:    billing.PaymentMethod(method),
		Reference: reference,
		Notes:     notes,
	}
	if userID != uuid.Nil {
		input.ReceivedBy = &userID
	}
	if paidAt != nil {
		if billing.DateOf(*paidAt).After(billing.DateOf(now)) {
			return billing.PaymentInput{}, shared.NewDomainError("INVALID_PAID_AT", "Payment date cannot be in the future")
		}
		input.PaidAt = *paidAt
	}
	return input, nil
}

// claim reserves an idempotency key. The returned func releases it again and
// is called when the guarded operation fails, so the client can retry.
func (s *InstallmentService) claim(ctx context.Context, tenantID uuid.UUID, key string) (func(), error) {
	if key == "" || s.idempotency == nil {
		return func() {}, nil
	}
	scoped := "payment:" + tenantID.String() + ":" + key
	fresh, err := s.idempotency.Claim(ctx, scoped, s.idempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if !fresh {
		return nil, shared.ErrDuplicateRequest
	}
	return func() {
		if err := s.idempotency.Release(context.WithoutCancel(ctx), scoped); err != nil {
			s.logger.Warn("Failed to release idempotency key", zap.String("key", scoped), zap.Error(err))
		}
	}, nil
}
