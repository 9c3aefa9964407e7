package models

import (
	"time"

	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for a product
type ProductModel struct {
	TenantAggregateModel
	Code          string          `gorm:"type:varchar(50);not null;index"`
	Barcode       string          `gorm:"type:varchar(50);index"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	Unit          string          `gorm:"type:varchar(10);not null;default:'UN'"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active        bool            `gorm:"not null;default:true"`
	DeletedAt     *time.Time      `gorm:"index"`
}

func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		TenantAggregateRoot: m.toTenantAggregateRoot(),
		Code:                m.Code,
		Barcode:             m.Barcode,
		Name:                m.Name,
		Description:         m.Description,
		Unit:                m.Unit,
		UnitPrice:           m.UnitPrice,
		CostPrice:           m.CostPrice,
		StockQuantity:       m.StockQuantity,
		MinStock:            m.MinStock,
		Active:              m.Active,
		DeletedAt:           m.DeletedAt,
	}
}

// ProductModelFromDomain builds the model of p
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Code:          p.Code,
		Barcode:       p.Barcode,
		Name:          p.Name,
		Description:   p.Description,
		Unit:          p.Unit,
		UnitPrice:     p.UnitPrice,
		CostPrice:     p.CostPrice,
		StockQuantity: p.StockQuantity,
		MinStock:      p.MinStock,
		Active:        p.Active,
		DeletedAt:     utcPtr(p.DeletedAt),
	}
	m.fromTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}
