package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SaleItemRequest is one line of a new sale. Price and cost are taken from
// the product; UnitPrice overrides the selling price for this sale only.
type SaleItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required,decimal_gt0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest represents a sale rung up at the counter
type CreateSaleRequest struct {
	CustomerID       *uuid.UUID        `json:"customer_id"`
	Items            []SaleItemRequest `json:"items" binding:"required,min=1,max=200,dive"`
	Discount         *decimal.Decimal  `json:"discount"`
	PaymentMethod    string            `json:"payment_method" binding:"required,oneof=cash debit_card credit_card pix installment"`
	InstallmentCount int               `json:"installment_count" binding:"omitempty,min=1,max=48"`
	FirstDueDate     *time.Time        `json:"first_due_date"`
	Notes            string            `json:"notes" binding:"max=1000"`
}

// CancelSaleRequest carries the cancellation reason
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// SaleListFilter is bound from the query string
type SaleListFilter struct {
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by" binding:"omitempty,oneof=sold_at total sale_number created_at"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search        string     `form:"search"`
	CustomerID    *uuid.UUID `form:"-"`
	SellerID      *uuid.UUID `form:"-"`
	PaymentMethod string     `form:"payment_method" binding:"omitempty,oneof=cash debit_card credit_card pix installment"`
	Status        string     `form:"status" binding:"omitempty,oneof=completed cancelled"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
}

// SaleItemResponse is a sold line with the prices captured at sale time
type SaleItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID               uuid.UUID          `json:"id"`
	SaleNumber       string             `json:"sale_number"`
	CustomerID       *uuid.UUID         `json:"customer_id,omitempty"`
	CustomerName     string             `json:"customer_name,omitempty"`
	SellerID         uuid.UUID          `json:"seller_id"`
	Items            []SaleItemResponse `json:"items"`
	Subtotal         decimal.Decimal    `json:"subtotal"`
	Discount         decimal.Decimal    `json:"discount"`
	Total            decimal.Decimal    `json:"total"`
	TotalCost        decimal.Decimal    `json:"total_cost"`
	GrossProfit      decimal.Decimal    `json:"gross_profit"`
	PaymentMethod    string             `json:"payment_method"`
	InstallmentCount int                `json:"installment_count,omitempty"`
	FirstDueDate     *time.Time         `json:"first_due_date,omitempty"`
	Status           string             `json:"status"`
	Notes            string             `json:"notes,omitempty"`
	SoldAt           time.Time          `json:"sold_at"`
	CancelledAt      *time.Time         `json:"cancelled_at,omitempty"`
	CancelReason     string             `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// SaleListResponse is the compact list form
type SaleListResponse struct {
	ID            uuid.UUID       `json:"id"`
	SaleNumber    string          `json:"sale_number"`
	CustomerName  string          `json:"customer_name,omitempty"`
	ItemCount     int             `json:"item_count"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	SoldAt        time.Time       `json:"sold_at"`
}

// ToSaleResponse converts a domain sale
func ToSaleResponse(s *sales.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = SaleItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			UnitCost:    it.UnitCost,
			Subtotal:    it.Subtotal,
		}
	}
	return SaleResponse{
		ID:               s.ID,
		SaleNumber:       s.SaleNumber,
		CustomerID:       s.CustomerID,
		CustomerName:     s.CustomerName,
		SellerID:         s.SellerID,
		Items:            items,
		Subtotal:         s.Subtotal,
		Discount:         s.Discount,
		Total:            s.Total,
		TotalCost:        s.TotalCost(),
		GrossProfit:      s.GrossProfit(),
		PaymentMethod:    string(s.PaymentMethod),
		InstallmentCount: s.InstallmentCount,
		FirstDueDate:     s.FirstDueDate,
		Status:           string(s.Status),
		Notes:            s.Notes,
		SoldAt:           s.SoldAt,
		CancelledAt:      s.CancelledAt,
		CancelReason:     s.CancelReason,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// ToSaleListResponses converts a list of sales
func ToSaleListResponses(list []sales.Sale) []SaleListResponse {
	out := make([]SaleListResponse, len(list))
	for i := range list {
		s := &list[i]
		out[i] = SaleListResponse{
			ID:            s.ID,
			SaleNumber:    s.SaleNumber,
			CustomerName:  s.CustomerName,
			ItemCount:     len(s.Items),
			Total:         s.Total,
			PaymentMethod: string(s.PaymentMethod),
			Status:        string(s.Status),
			SoldAt:        s.SoldAt,
		}
	}
	return out
}
