package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Request DTOs
// =============================================================================

// RegisterPaymentRequest books a (partial) payment against one installment
type RegisterPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required,decimal_gt0"`
	PaidAt    *time.Time      `json:"paid_at"`
	Method    string          `json:"method" binding:"omitempty,oneof=cash debit_card credit_card pix transfer"`
	Reference string          `json:"reference" binding:"max=100"`
	Notes     string          `json:"notes" binding:"max=500"`
}

// PayDebtRequest spreads one amount over a customer's open installments
type PayDebtRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required,decimal_gt0"`
	PaidAt    *time.Time      `json:"paid_at"`
	Method    string          `json:"method" binding:"omitempty,oneof=cash debit_card credit_card pix transfer"`
	Reference string          `json:"reference" binding:"max=100"`
	Notes     string          `json:"notes" binding:"max=500"`
}

// InstallmentListFilter is bound from the query string
type InstallmentListFilter struct {
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by" binding:"omitempty,oneof=due_date amount number created_at"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	CustomerID  *uuid.UUID `form:"-"`
	SaleID      *uuid.UUID `form:"-"`
	Status      string     `form:"status" binding:"omitempty,oneof=pending partial paid overdue cancelled"`
	DueFrom     *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo       *time.Time `form:"due_to" time_format:"2006-01-02"`
	OverdueOnly bool       `form:"overdue_only"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// PaymentResponse is one payment booked against an installment
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	InstallmentID uuid.UUID       `json:"installment_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        time.Time       `json:"paid_at"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	ReceivedBy    *uuid.UUID      `json:"received_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InstallmentResponse carries balances derived from the payments at response time
type InstallmentResponse struct {
	ID                uuid.UUID         `json:"id"`
	SaleID            uuid.UUID         `json:"sale_id"`
	CustomerID        uuid.UUID         `json:"customer_id"`
	Number            int               `json:"number"`
	TotalInstallments int               `json:"total_installments"`
	Label             string            `json:"label"`
	DueDate           time.Time         `json:"due_date"`
	Amount            decimal.Decimal   `json:"amount"`
	TotalPaid         decimal.Decimal   `json:"total_paid"`
	Remaining         decimal.Decimal   `json:"remaining_amount"`
	Status            string            `json:"status"`
	IsOverdue         bool              `json:"is_overdue"`
	DaysOverdue       int               `json:"days_overdue"`
	PaidAt            *time.Time        `json:"paid_at,omitempty"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
	Payments          []PaymentResponse `json:"payments"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// RegisterPaymentResponse returns the new payment and the refreshed installment
type RegisterPaymentResponse struct {
	Payment     PaymentResponse     `json:"payment"`
	Installment InstallmentResponse `json:"installment"`
}

// CustomerDebtResponse is a customer's position computed from live payment sums
type CustomerDebtResponse struct {
	CustomerID       uuid.UUID       `json:"customer_id"`
	CustomerName     string          `json:"customer_name"`
	AsOf             time.Time       `json:"as_of"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	OverdueAmount    decimal.Decimal `json:"overdue_amount"`
	OpenInstallments int             `json:"open_installments"`
	OverdueCount     int             `json:"overdue_count"`
	NextDueDate      *time.Time      `json:"next_due_date,omitempty"`
	OldestDueDate    *time.Time      `json:"oldest_due_date,omitempty"`
}

// DebtPaymentResponse lists the payments created by one lump debt payment
type DebtPaymentResponse struct {
	CustomerID uuid.UUID            `json:"customer_id"`
	Amount     decimal.Decimal      `json:"amount"`
	Payments   []PaymentResponse    `json:"payments"`
	Debt       CustomerDebtResponse `json:"debt"`
}

// PixChargeResponse is a static PIX charge for an installment's remaining amount
type PixChargeResponse struct {
	InstallmentID uuid.UUID       `json:"installment_id"`
	TxID          string          `json:"txid"`
	Amount        decimal.Decimal `json:"amount"`
	Payload       string          `json:"payload"`
	QRCodeURL     string          `json:"qr_code_url,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
}

// =============================================================================
// Converters
// =============================================================================

// ToPaymentResponse converts a domain payment
func ToPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		InstallmentID: p.InstallmentID,
		Amount:        p.Amount,
		PaidAt:        p.PaidAt,
		Method:        string(p.Method),
		Reference:     p.Reference,
		Notes:         p.Notes,
		ReceivedBy:    p.ReceivedBy,
		CreatedAt:     p.CreatedAt,
	}
}

// ToInstallmentResponse converts an installment as seen on asOf
func ToInstallmentResponse(i *billing.Installment, asOf time.Time) InstallmentResponse {
	payments := i.PaymentsByDate()
	out := make([]PaymentResponse, len(payments))
	for idx := range payments {
		out[idx] = ToPaymentResponse(&payments[idx])
	}
	return InstallmentResponse{
		ID:                i.ID,
		SaleID:            i.SaleID,
		CustomerID:        i.CustomerID,
		Number:            i.Number,
		TotalInstallments: i.TotalInstallments,
		Label:             i.Label(),
		DueDate:           i.DueDate,
		Amount:            i.Amount,
		TotalPaid:         i.TotalPaid(),
		Remaining:         i.Remaining(),
		Status:            string(i.StatusAt(asOf)),
		IsOverdue:         i.IsOverdue(asOf),
		DaysOverdue:       i.DaysOverdue(asOf),
		PaidAt:            i.PaidAt,
		CancelledAt:       i.CancelledAt,
		Payments:          out,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

// ToInstallmentResponses converts a list
func ToInstallmentResponses(items []billing.Installment, asOf time.Time) []InstallmentResponse {
	out := make([]InstallmentResponse, len(items))
	for idx := range items {
		out[idx] = ToInstallmentResponse(&items[idx], asOf)
	}
	return out
}

// ToCustomerDebtResponse converts a debt summary
func ToCustomerDebtResponse(d *billing.CustomerDebt, name string, asOf time.Time) CustomerDebtResponse {
	return CustomerDebtResponse{
		CustomerID:       d.CustomerID,
		CustomerName:     name,
		AsOf:             billing.DateOf(asOf),
		TotalAmount:      d.TotalAmount,
		TotalPaid:        d.TotalPaid,
		Outstanding:      d.Outstanding,
		OverdueAmount:    d.OverdueAmount,
		OpenInstallments: d.OpenInstallments,
		OverdueCount:     d.OverdueCount,
		NextDueDate:      d.NextDueDate,
		OldestDueDate:    d.OldestDueDate,
	}
}
