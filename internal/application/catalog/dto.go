package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Code         string           `json:"code" binding:"required,min=1,max=50"`
	Barcode      string           `json:"barcode" binding:"omitempty,numeric,max=14"`
	Name         string           `json:"name" binding:"required,min=1,max=200"`
	Description  string           `json:"description" binding:"max=2000"`
	Unit         string           `json:"unit" binding:"omitempty,max=10"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	CostPrice    decimal.Decimal  `json:"cost_price"`
	InitialStock *decimal.Decimal `json:"initial_stock"`
	MinStock     *decimal.Decimal `json:"min_stock"`
}

// UpdateProductRequest updates the descriptive fields. Nil fields are kept.
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Unit        *string          `json:"unit" binding:"omitempty,max=10"`
	Barcode     *string          `json:"barcode" binding:"omitempty,max=14"`
	MinStock    *decimal.Decimal `json:"min_stock"`
	Active      *bool            `json:"active"`
}

// UpdatePricesRequest replaces selling and cost price
type UpdatePricesRequest struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

// AdjustStockRequest adds (positive) or removes (negative) stock
type AdjustStockRequest struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason" binding:"max=200"`
}

// ProductListFilter is bound from the query string
type ProductListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=code name unit_price stock_quantity created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Barcode       string          `json:"barcode,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Unit          string          `json:"unit"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	Margin        decimal.Decimal `json:"margin"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	MinStock      decimal.Decimal `json:"min_stock"`
	LowStock      bool            `json:"low_stock"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// ToProductResponse converts a domain product
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Code:          p.Code,
		Barcode:       p.Barcode,
		Name:          p.Name,
		Description:   p.Description,
		Unit:          p.Unit,
		UnitPrice:     p.UnitPrice,
		CostPrice:     p.CostPrice,
		Margin:        p.Margin(),
		StockQuantity: p.StockQuantity,
		MinStock:      p.MinStock,
		LowStock:      p.IsLowStock(),
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}

// ToProductResponses converts a list of domain products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}
