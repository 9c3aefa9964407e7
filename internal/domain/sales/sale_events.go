package sales

import (
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeSale = "Sale"

	EventTypeSaleCompleted = "SaleCompleted"
	EventTypeSaleCancelled = "SaleCancelled"
)

// StockLine is the quantity of one product moved by a sale
type StockLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleNumber    string          `json:"sale_number"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Lines         []StockLine     `json:"lines"`
}

func NewSaleCompletedEvent(s *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, s.ID, s.TenantID),
		SaleNumber:      s.SaleNumber,
		CustomerID:      s.CustomerID,
		Total:           s.Total,
		PaymentMethod:   s.PaymentMethod,
		Lines:           stockLines(s),
	}
}

type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleNumber string      `json:"sale_number"`
	Reason     string      `json:"reason"`
	Lines      []StockLine `json:"lines"`
}

func NewSaleCancelledEvent(s *Sale, reason string) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID, s.TenantID),
		SaleNumber:      s.SaleNumber,
		Reason:          reason,
		Lines:           stockLines(s),
	}
}

func stockLines(s *Sale) []StockLine {
	lines := make([]StockLine, 0, len(s.Items))
	for _, it := range s.Items {
		lines = append(lines, StockLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}
