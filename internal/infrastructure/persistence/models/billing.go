package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// InstallmentModel is the persistence model for an installment. Status is a
// projection refreshed on write; balances come from the payments table.
type InstallmentModel struct {
	TenantAggregateModel
	SaleID            uuid.UUID                 `gorm:"type:uuid;not null;index"`
	CustomerID        uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Number            int                       `gorm:"not null"`
	TotalInstallments int                       `gorm:"not null"`
	DueDate           time.Time                 `gorm:"type:date;not null;index"`
	Amount            decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Status            billing.InstallmentStatus `gorm:"type:varchar(20);not null;index"`
	PaidAt            *time.Time
	CancelledAt       *time.Time
	CancelReason      string         `gorm:"type:varchar(500)"`
	Payments          []PaymentModel `gorm:"foreignKey:InstallmentID;references:ID"`
}

func (InstallmentModel) TableName() string {
	return "installments"
}

// PaymentModel is one partial or full payment against an installment
type PaymentModel struct {
	ID            uuid.UUID             `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	InstallmentID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaidAt        time.Time             `gorm:"not null;index"`
	Method        billing.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference     string                `gorm:"type:varchar(100)"`
	Notes         string                `gorm:"type:varchar(500)"`
	ReceivedBy    *uuid.UUID            `gorm:"type:uuid"`
	CreatedAt     time.Time             `gorm:"not null"`
}

func (PaymentModel) TableName() string {
	return "installment_payments"
}

// ToDomain converts the model and its loaded payments to an Installment
func (m *InstallmentModel) ToDomain() *billing.Installment {
	inst := &billing.Installment{
		TenantAggregateRoot: m.toTenantAggregateRoot(),
		SaleID:              m.SaleID,
		CustomerID:          m.CustomerID,
		Number:              m.Number,
		TotalInstallments:   m.TotalInstallments,
		DueDate:             billing.DateOf(m.DueDate),
		Amount:              m.Amount,
		Status:              m.Status,
		PaidAt:              m.PaidAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
		Payments:            make([]billing.Payment, len(m.Payments)),
	}
	for i := range m.Payments {
		inst.Payments[i] = m.Payments[i].ToDomain()
	}
	return inst
}

// ToDomain converts the model to a Payment
func (m *PaymentModel) ToDomain() billing.Payment {
	return billing.Payment{
		ID:            m.ID,
		TenantID:      m.TenantID,
		InstallmentID: m.InstallmentID,
		Amount:        m.Amount,
		PaidAt:        m.PaidAt,
		Method:        m.Method,
		Reference:     m.Reference,
		Notes:         m.Notes,
		ReceivedBy:    m.ReceivedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// PaymentModelFromDomain builds the model of p
func PaymentModelFromDomain(p *billing.Payment) PaymentModel {
	return PaymentModel{
		ID:            p.ID,
		TenantID:      p.TenantID,
		InstallmentID: p.InstallmentID,
		Amount:        p.Amount,
		PaidAt:        p.PaidAt.UTC(),
		Method:        p.Method,
		Reference:     p.Reference,
		Notes:         p.Notes,
		ReceivedBy:    p.ReceivedBy,
		CreatedAt:     p.CreatedAt.UTC(),
	}
}

// InstallmentModelFromDomain builds the model of i including its payments
func InstallmentModelFromDomain(i *billing.Installment) *InstallmentModel {
	m := &InstallmentModel{
		SaleID:            i.SaleID,
		CustomerID:        i.CustomerID,
		Number:            i.Number,
		TotalInstallments: i.TotalInstallments,
		DueDate:           billing.DateOf(i.DueDate),
		Amount:            i.Amount,
		Status:            i.Status,
		PaidAt:            utcPtr(i.PaidAt),
		CancelledAt:       utcPtr(i.CancelledAt),
		CancelReason:      i.CancelReason,
		Payments:          make([]PaymentModel, len(i.Payments)),
	}
	m.fromTenantAggregateRoot(i.TenantAggregateRoot)
	for idx := range i.Payments {
		m.Payments[idx] = PaymentModelFromDomain(&i.Payments[idx])
	}
	return m
}
