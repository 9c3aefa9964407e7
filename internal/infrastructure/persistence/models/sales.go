package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for a sale
type SaleModel struct {
	TenantAggregateModel
	SaleNumber       string              `gorm:"type:varchar(30);not null;index"`
	CustomerID       *uuid.UUID          `gorm:"type:uuid;index"`
	CustomerName     string              `gorm:"type:varchar(200)"`
	SellerID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	Subtotal         decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Discount         decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Total            decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PaymentMethod    sales.PaymentMethod `gorm:"type:varchar(20);not null"`
	InstallmentCount int                 `gorm:"not null;default:0"`
	FirstDueDate     *time.Time          `gorm:"type:date"`
	Status           sales.SaleStatus    `gorm:"type:varchar(20);not null;index"`
	Notes            string              `gorm:"type:text"`
	SoldAt           time.Time           `gorm:"not null;index"`
	CancelledAt      *time.Time
	CancelReason     string          `gorm:"type:varchar(500)"`
	Items            []SaleItemModel `gorm:"foreignKey:SaleID;references:ID"`
}

func (SaleModel) TableName() string {
	return "sales"
}

// SaleItemModel captures the price and cost of a product at sale time
type SaleItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode string          `gorm:"type:varchar(50);not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the model and its loaded items to a Sale
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		TenantAggregateRoot: m.toTenantAggregateRoot(),
		SaleNumber:          m.SaleNumber,
		CustomerID:          m.CustomerID,
		CustomerName:        m.CustomerName,
		SellerID:            m.SellerID,
		Subtotal:            m.Subtotal,
		Discount:            m.Discount,
		Total:               m.Total,
		PaymentMethod:       m.PaymentMethod,
		InstallmentCount:    m.InstallmentCount,
		FirstDueDate:        m.FirstDueDate,
		Status:              m.Status,
		Notes:               m.Notes,
		SoldAt:              m.SoldAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
		Items:               make([]sales.SaleItem, len(m.Items)),
	}
	for i, it := range m.Items {
		s.Items[i] = sales.SaleItem{
			ID:          it.ID,
			SaleID:      it.SaleID,
			ProductID:   it.ProductID,
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			UnitCost:    it.UnitCost,
			Subtotal:    it.Subtotal,
		}
	}
	return s
}

// SaleModelFromDomain builds the model of s including its items
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{
		SaleNumber:       s.SaleNumber,
		CustomerID:       s.CustomerID,
		CustomerName:     s.CustomerName,
		SellerID:         s.SellerID,
		Subtotal:         s.Subtotal,
		Discount:         s.Discount,
		Total:            s.Total,
		PaymentMethod:    s.PaymentMethod,
		InstallmentCount: s.InstallmentCount,
		FirstDueDate:     utcPtr(s.FirstDueDate),
		Status:           s.Status,
		Notes:            s.Notes,
		SoldAt:           s.SoldAt.UTC(),
		CancelledAt:      utcPtr(s.CancelledAt),
		CancelReason:     s.CancelReason,
		Items:            make([]SaleItemModel, len(s.Items)),
	}
	m.fromTenantAggregateRoot(s.TenantAggregateRoot)
	for i, it := range s.Items {
		m.Items[i] = SaleItemModel{
			ID:          it.ID,
			SaleID:      s.ID,
			ProductID:   it.ProductID,
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			UnitCost:    it.UnitCost,
			Subtotal:    it.Subtotal,
		}
	}
	return m
}
