// Package catalog holds the products sold at the counter.
package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Product is a sellable item with its current prices and on-hand stock
type Product struct {
	shared.TenantAggregateRoot
	Code          string
	Barcode       string
	Name          string
	Description   string
	Unit          string
	UnitPrice     decimal.Decimal
	CostPrice     decimal.Decimal
	StockQuantity decimal.Decimal
	MinStock      decimal.Decimal
	Active        bool
	DeletedAt     *time.Time
}

// NewProduct creates an active product
func NewProduct(tenantID uuid.UUID, code, name, unit string, unitPrice, costPrice decimal.Decimal) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code must have 1 to 50 characters")
	}
	p := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(code),
		Unit:                "UN",
		StockQuantity:       decimal.Zero,
		MinStock:            decimal.Zero,
		Active:              true,
	}
	if err := p.Update(name, "", unit); err != nil {
		return nil, err
	}
	if err := p.SetPrices(unitPrice, costPrice); err != nil {
		return nil, err
	}
	return p, nil
}

// Update changes the descriptive fields
func (p *Product) Update(name, description, unit string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	p.Name = name
	p.Description = strings.TrimSpace(description)
	if unit = strings.TrimSpace(unit); unit != "" {
		p.Unit = strings.ToUpper(unit)
	}
	p.Touch()
	return nil
}

// SetBarcode stores an EAN/GTIN barcode, digits only
func (p *Product) SetBarcode(barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if barcode != "" && valueobject.OnlyDigits(barcode) != barcode {
		return shared.NewDomainError("INVALID_BARCODE", "Barcode must contain only digits")
	}
	p.Barcode = barcode
	p.Touch()
	return nil
}

// SetPrices replaces selling and cost price. Sales already made keep their captured prices.
func (p *Product) SetPrices(unitPrice, costPrice decimal.Decimal) error {
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if costPrice.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Cost price cannot be negative")
	}
	p.UnitPrice = valueobject.RoundCents(unitPrice)
	p.CostPrice = costPrice.Round(4)
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetMinStock sets the low stock alert threshold
func (p *Product) SetMinStock(min decimal.Decimal) error {
	if min.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum stock cannot be negative")
	}
	p.MinStock = min
	p.Touch()
	return nil
}

// AdjustStock adds delta (negative to remove). Stock may not go below zero.
func (p *Product) AdjustStock(delta decimal.Decimal) error {
	next := p.StockQuantity.Add(delta)
	if next.IsNegative() {
		return shared.ErrInsufficientStock
	}
	p.StockQuantity = next
	p.Touch()
	p.IncrementVersion()
	return nil
}

// CanSell checks the product is active and has quantity on hand
func (p *Product) CanSell(quantity decimal.Decimal) error {
	if !p.Active || p.IsDeleted() {
		return shared.NewDomainError("PRODUCT_INACTIVE", "Product "+p.Code+" is not available for sale")
	}
	if p.StockQuantity.LessThan(quantity) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock for product "+p.Code)
	}
	return nil
}

func (p *Product) Activate() {
	p.Active = true
	p.Touch()
}

func (p *Product) Deactivate() {
	p.Active = false
	p.Touch()
}

// SoftDelete hides the product from listings; historical sales still reference it
func (p *Product) SoftDelete() {
	now := time.Now()
	p.DeletedAt = &now
	p.Active = false
	p.Touch()
}

func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// IsLowStock is true when stock is at or below MinStock and a threshold is set
func (p *Product) IsLowStock() bool {
	return p.MinStock.IsPositive() && p.StockQuantity.LessThanOrEqual(p.MinStock)
}

// Margin is (price - cost) / price as a percentage
func (p *Product) Margin() decimal.Decimal {
	return valueobject.Percentage(p.UnitPrice.Sub(p.CostPrice), p.UnitPrice)
}
