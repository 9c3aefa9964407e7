package models

import (
	"time"

	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for a customer
type CustomerModel struct {
	TenantAggregateModel
	Name        string          `gorm:"type:varchar(200);not null"`
	Document    string          `gorm:"type:varchar(14);index"`
	Email       string          `gorm:"type:varchar(200)"`
	Phone       string          `gorm:"type:varchar(30)"`
	Address     string          `gorm:"type:text"`
	City        string          `gorm:"type:varchar(100)"`
	State       string          `gorm:"type:varchar(2)"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes       string          `gorm:"type:text"`
	Active      bool            `gorm:"not null;default:true"`
	DeletedAt   *time.Time      `gorm:"index"`
}

func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		TenantAggregateRoot: m.toTenantAggregateRoot(),
		Name:                m.Name,
		Document:            m.Document,
		Email:               m.Email,
		Phone:               m.Phone,
		Address:             m.Address,
		City:                m.City,
		State:               m.State,
		CreditLimit:         m.CreditLimit,
		Notes:               m.Notes,
		Active:              m.Active,
		DeletedAt:           m.DeletedAt,
	}
}

// CustomerModelFromDomain builds the model of c
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:        c.Name,
		Document:    c.Document,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		City:        c.City,
		State:       c.State,
		CreditLimit: c.CreditLimit,
		Notes:       c.Notes,
		Active:      c.Active,
		DeletedAt:   utcPtr(c.DeletedAt),
	}
	m.fromTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}
