package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeInstallment = "Installment"

	EventTypeInstallmentCreated   = "InstallmentCreated"
	EventTypePaymentRegistered    = "PaymentRegistered"
	EventTypePaymentRemoved       = "PaymentRemoved"
	EventTypeInstallmentPaid      = "InstallmentPaid"
	EventTypeInstallmentOverdue   = "InstallmentOverdue"
	EventTypeInstallmentCancelled = "InstallmentCancelled"
)

// LedgerEventTypes are the events that change a balance
func LedgerEventTypes() []string {
	return []string{
		EventTypeInstallmentCreated,
		EventTypePaymentRegistered,
		EventTypePaymentRemoved,
		EventTypeInstallmentPaid,
		EventTypeInstallmentCancelled,
	}
}

type InstallmentCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID       `json:"sale_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Number     int             `json:"number"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    time.Time       `json:"due_date"`
}

func NewInstallmentCreatedEvent(i *Installment) *InstallmentCreatedEvent {
	return &InstallmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentCreated, AggregateTypeInstallment, i.ID, i.TenantID),
		SaleID:          i.SaleID,
		CustomerID:      i.CustomerID,
		Number:          i.Number,
		Amount:          i.Amount,
		DueDate:         i.DueDate,
	}
}

// PaymentRegisteredEvent carries the remaining balance right after the payment
type PaymentRegisteredEvent struct {
	shared.BaseDomainEvent
	PaymentID  uuid.UUID       `json:"payment_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Remaining  decimal.Decimal `json:"remaining"`
	Method     PaymentMethod   `json:"method"`
}

func NewPaymentRegisteredEvent(i *Installment, p *Payment) *PaymentRegisteredEvent {
	return &PaymentRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRegistered, AggregateTypeInstallment, i.ID, i.TenantID),
		PaymentID:       p.ID,
		CustomerID:      i.CustomerID,
		Amount:          p.Amount,
		Remaining:       i.Remaining(),
		Method:          p.Method,
	}
}

type PaymentRemovedEvent struct {
	shared.BaseDomainEvent
	PaymentID  uuid.UUID       `json:"payment_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Remaining  decimal.Decimal `json:"remaining"`
}

func NewPaymentRemovedEvent(i *Installment, p *Payment) *PaymentRemovedEvent {
	return &PaymentRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRemoved, AggregateTypeInstallment, i.ID, i.TenantID),
		PaymentID:       p.ID,
		CustomerID:      i.CustomerID,
		Amount:          p.Amount,
		Remaining:       i.Remaining(),
	}
}

type InstallmentPaidEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

func NewInstallmentPaidEvent(i *Installment) *InstallmentPaidEvent {
	return &InstallmentPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentPaid, AggregateTypeInstallment, i.ID, i.TenantID),
		CustomerID:      i.CustomerID,
		Amount:          i.Amount,
	}
}

type InstallmentOverdueEvent struct {
	shared.BaseDomainEvent
	CustomerID  uuid.UUID       `json:"customer_id"`
	Remaining   decimal.Decimal `json:"remaining"`
	DaysOverdue int             `json:"days_overdue"`
}

func NewInstallmentOverdueEvent(i *Installment, asOf time.Time) *InstallmentOverdueEvent {
	return &InstallmentOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentOverdue, AggregateTypeInstallment, i.ID, i.TenantID),
		CustomerID:      i.CustomerID,
		Remaining:       i.Remaining(),
		DaysOverdue:     i.DaysOverdue(asOf),
	}
}

type InstallmentCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID `json:"sale_id"`
	Reason string    `json:"reason"`
}

func NewInstallmentCancelledEvent(i *Installment, reason string) *InstallmentCancelledEvent {
	return &InstallmentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInstallmentCancelled, AggregateTypeInstallment, i.ID, i.TenantID),
		SaleID:          i.SaleID,
		Reason:          reason,
	}
}
