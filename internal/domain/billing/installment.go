// Package billing holds the installment ledger: installments generated from
// sales paid on store credit and the partial payments booked against them.
package billing

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the settlement state of an installment
type InstallmentStatus string

const (
	InstallmentStatusPending   InstallmentStatus = "pending"
	InstallmentStatusPartial   InstallmentStatus = "partial"
	InstallmentStatusPaid      InstallmentStatus = "paid"
	InstallmentStatusOverdue   InstallmentStatus = "overdue"
	InstallmentStatusCancelled InstallmentStatus = "cancelled"
)

// IsValid checks if the status is a valid InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusPartial, InstallmentStatusPaid,
		InstallmentStatusOverdue, InstallmentStatusCancelled:
		return true
	}
	return false
}

func (s InstallmentStatus) String() string {
	return string(s)
}

// IsOpen returns true while a balance can still be owed
func (s InstallmentStatus) IsOpen() bool {
	return s == InstallmentStatusPending || s == InstallmentStatusPartial || s == InstallmentStatusOverdue
}

// OpenStatuses lists every status that may carry a remaining balance
func OpenStatuses() []InstallmentStatus {
	return []InstallmentStatus{InstallmentStatusPending, InstallmentStatusPartial, InstallmentStatusOverdue}
}

// MaxInstallments bounds how many parts a single sale may be split into
const MaxInstallments = 48

// Installment is one scheduled portion of a sale's total.
// TotalPaid and Remaining are never stored; they are always derived from Payments.
type Installment struct {
	shared.TenantAggregateRoot
	SaleID            uuid.UUID
	CustomerID        uuid.UUID
	Number            int
	TotalInstallments int
	DueDate           time.Time
	Amount            decimal.Decimal
	Status            InstallmentStatus
	PaidAt            *time.Time
	CancelledAt       *time.Time
	CancelReason      string
	Payments          []Payment
}

// NewInstallment creates a pending installment
func NewInstallment(
	tenantID, saleID, customerID uuid.UUID,
	number, totalInstallments int,
	dueDate time.Time,
	amount decimal.Decimal,
) (*Installment, error) {
	if saleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SALE", "Sale ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Installment sales require a customer")
	}
	if totalInstallments < 1 || totalInstallments > MaxInstallments {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_COUNT",
			fmt.Sprintf("Installment count must be between 1 and %d", MaxInstallments))
	}
	if number < 1 || number > totalInstallments {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_NUMBER", "Installment number out of range")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Installment amount must be positive")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}

	inst := &Installment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SaleID:              saleID,
		CustomerID:          customerID,
		Number:              number,
		TotalInstallments:   totalInstallments,
		DueDate:             DateOf(dueDate),
		Amount:              valueobject.RoundCents(amount),
		Status:              InstallmentStatusPending,
	}
	inst.AddDomainEvent(NewInstallmentCreatedEvent(inst))
	return inst, nil
}

// TotalPaid sums every payment booked against the installment
func (i *Installment) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range i.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Remaining is max(0, amount - total paid)
func (i *Installment) Remaining() decimal.Decimal {
	return Remaining(i.Amount, i.TotalPaid())
}

// Remaining is the balance formula shared by the aggregate and the SQL read models
func Remaining(amount, totalPaid decimal.Decimal) decimal.Decimal {
	return valueobject.NonNegative(amount.Sub(totalPaid))
}

// DeriveStatus classifies an installment from its live totals.
// A zero remaining balance is paid, any payment makes it partial, and an
// untouched installment is overdue once asOf is past its due date.
func DeriveStatus(amount, totalPaid decimal.Decimal, dueDate, asOf time.Time) InstallmentStatus {
	if Remaining(amount, totalPaid).IsZero() {
		return InstallmentStatusPaid
	}
	if totalPaid.IsPositive() {
		return InstallmentStatusPartial
	}
	if IsPastDue(dueDate, asOf) {
		return InstallmentStatusOverdue
	}
	return InstallmentStatusPending
}

// StatusAt returns the status the installment has on asOf
func (i *Installment) StatusAt(asOf time.Time) InstallmentStatus {
	if i.IsCancelled() {
		return InstallmentStatusCancelled
	}
	return DeriveStatus(i.Amount, i.TotalPaid(), i.DueDate, asOf)
}

// Refresh recomputes the stored status projection. Returns true if it changed.
func (i *Installment) Refresh(asOf time.Time) bool {
	next := i.StatusAt(asOf)
	if next == i.Status {
		return false
	}
	prev := i.Status
	i.Status = next

	switch next {
	case InstallmentStatusPaid:
		paidAt := i.lastPaymentAt()
		i.PaidAt = &paidAt
	default:
		i.PaidAt = nil
	}
	if next == InstallmentStatusOverdue && prev != InstallmentStatusOverdue {
		i.AddDomainEvent(NewInstallmentOverdueEvent(i, asOf))
	}
	i.Touch()
	return true
}

// RegisterPayment books a partial or full payment. The amount may not exceed
// the remaining balance, which is recomputed from the payments on every call.
func (i *Installment) RegisterPayment(input PaymentInput, asOf time.Time) (*Payment, error) {
	if i.IsCancelled() {
		return nil, shared.NewDomainError("INSTALLMENT_CANCELLED", "Cannot register payment on a cancelled installment")
	}
	amount := input.Amount
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !valueobject.IsCentPrecise(amount) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot have fractional cents")
	}
	remaining := i.Remaining()
	if remaining.IsZero() {
		return nil, shared.NewDomainError("INSTALLMENT_ALREADY_PAID", "Installment is already fully paid")
	}
	if amount.GreaterThan(remaining) {
		return nil, shared.NewDomainError("EXCEEDS_REMAINING",
			fmt.Sprintf("Payment amount %s exceeds remaining amount %s", amount.StringFixed(2), remaining.StringFixed(2)))
	}
	method := input.Method
	if method == "" {
		method = PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}

	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = asOf
	}

	payment := Payment{
		ID:            uuid.New(),
		TenantID:      i.TenantID,
		InstallmentID: i.ID,
		Amount:        amount,
		PaidAt:        paidAt,
		Method:        method,
		Reference:     input.Reference,
		Notes:         input.Notes,
		ReceivedBy:    input.ReceivedBy,
		CreatedAt:     time.Now(),
	}
	i.Payments = append(i.Payments, payment)
	i.Refresh(asOf)
	i.IncrementVersion()

	i.AddDomainEvent(NewPaymentRegisteredEvent(i, &payment))
	if i.Status == InstallmentStatusPaid {
		i.AddDomainEvent(NewInstallmentPaidEvent(i))
	}
	return &payment, nil
}

// RemovePayment reverses a payment and recomputes the status
func (i *Installment) RemovePayment(paymentID uuid.UUID, asOf time.Time) (*Payment, error) {
	if i.IsCancelled() {
		return nil, shared.NewDomainError("INSTALLMENT_CANCELLED", "Cannot change payments of a cancelled installment")
	}
	for idx, p := range i.Payments {
		if p.ID != paymentID {
			continue
		}
		removed := p
		i.Payments = append(i.Payments[:idx:idx], i.Payments[idx+1:]...)
		i.Refresh(asOf)
		i.IncrementVersion()
		i.AddDomainEvent(NewPaymentRemovedEvent(i, &removed))
		return &removed, nil
	}
	return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found on this installment")
}

// Cancel voids an installment that has no payments
func (i *Installment) Cancel(reason string) error {
	if i.IsCancelled() {
		return shared.NewDomainError("INSTALLMENT_CANCELLED", "Installment is already cancelled")
	}
	if len(i.Payments) > 0 {
		return shared.NewDomainError("HAS_PAYMENTS", "Cannot cancel an installment that has payments")
	}
	now := time.Now()
	i.Status = InstallmentStatusCancelled
	i.CancelledAt = &now
	i.CancelReason = reason
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewInstallmentCancelledEvent(i, reason))
	return nil
}

func (i *Installment) IsCancelled() bool {
	return i.Status == InstallmentStatusCancelled
}

func (i *Installment) IsPaid() bool {
	return !i.IsCancelled() && i.Remaining().IsZero()
}

// IsOverdue is true while a balance remains past the due date.
// Partially paid installments count, they still owe money.
func (i *Installment) IsOverdue(asOf time.Time) bool {
	if i.IsCancelled() {
		return false
	}
	return i.Remaining().IsPositive() && IsPastDue(i.DueDate, asOf)
}

// DaysOverdue returns the number of days past due, 0 when not overdue
func (i *Installment) DaysOverdue(asOf time.Time) int {
	if !i.IsOverdue(asOf) {
		return 0
	}
	return DaysBetween(i.DueDate, asOf)
}

// HasPayments reports whether any payment was booked
func (i *Installment) HasPayments() bool {
	return len(i.Payments) > 0
}

// PaymentsByDate returns payments ordered by PaidAt
func (i *Installment) PaymentsByDate() []Payment {
	out := make([]Payment, len(i.Payments))
	copy(out, i.Payments)
	sort.SliceStable(out, func(a, b int) bool { return out[a].PaidAt.Before(out[b].PaidAt) })
	return out
}

// Label renders "2/6"
func (i *Installment) Label() string {
	return fmt.Sprintf("%d/%d", i.Number, i.TotalInstallments)
}

func (i *Installment) lastPaymentAt() time.Time {
	var last time.Time
	for _, p := range i.Payments {
		if p.PaidAt.After(last) {
			last = p.PaidAt
		}
	}
	if last.IsZero() {
		last = time.Now()
	}
	return last
}

// DateOf returns t's calendar day, read in t's own location, as UTC midnight
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsPastDue compares calendar days: due today is not yet past due
func IsPastDue(dueDate, asOf time.Time) bool {
	return DateOf(dueDate).Before(DateOf(asOf))
}

// DaysBetween counts whole calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
