package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how an installment payment was received
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodTransfer   PaymentMethod = "transfer"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodDebitCard, PaymentMethodCreditCard,
		PaymentMethodPix, PaymentMethodTransfer:
		return true
	}
	return false
}

func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is a single amount received against exactly one installment
type Payment struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	InstallmentID uuid.UUID
	Amount        decimal.Decimal
	PaidAt        time.Time
	Method        PaymentMethod
	Reference     string
	Notes         string
	ReceivedBy    *uuid.UUID
	CreatedAt     time.Time
}

// PaymentInput carries the user supplied fields of a new payment
type PaymentInput struct {
	Amount     decimal.Decimal
	PaidAt     time.Time
	Method     PaymentMethod
	Reference  string
	Notes      string
	ReceivedBy *uuid.UUID
}
