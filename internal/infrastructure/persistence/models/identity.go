package models

import (
	"time"

	"github.com/retailpos/backend/internal/domain/identity"
)

// CompanyModel is the persistence model for a tenant company
type CompanyModel struct {
	AggregateModel
	Name         string `gorm:"type:varchar(200);not null"`
	TradeName    string `gorm:"type:varchar(200)"`
	Document     string `gorm:"type:varchar(14);uniqueIndex"`
	Email        string `gorm:"type:varchar(200)"`
	Phone        string `gorm:"type:varchar(30)"`
	PixKey       string `gorm:"type:varchar(77)"`
	MerchantCity string `gorm:"type:varchar(60)"`
	Timezone     string `gorm:"type:varchar(60);not null;default:'America/Sao_Paulo'"`
	Active       bool   `gorm:"not null;default:true"`
}

func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the model to a Company
func (m *CompanyModel) ToDomain() *identity.Company {
	return &identity.Company{
		BaseAggregateRoot: m.toAggregateRoot(),
		Name:              m.Name,
		TradeName:         m.TradeName,
		Document:          m.Document,
		Email:             m.Email,
		Phone:             m.Phone,
		PixKey:            m.PixKey,
		MerchantCity:      m.MerchantCity,
		Timezone:          m.Timezone,
		Active:            m.Active,
	}
}

// CompanyModelFromDomain builds the model of c
func CompanyModelFromDomain(c *identity.Company) *CompanyModel {
	m := &CompanyModel{
		Name:         c.Name,
		TradeName:    c.TradeName,
		Document:     c.Document,
		Email:        c.Email,
		Phone:        c.Phone,
		PixKey:       c.PixKey,
		MerchantCity: c.MerchantCity,
		Timezone:     c.Timezone,
		Active:       c.Active,
	}
	m.fromAggregateRoot(c.BaseAggregateRoot)
	return m
}

// UserModel is the persistence model for a company user
type UserModel struct {
	TenantAggregateModel
	Username     string        `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email        string        `gorm:"type:varchar(200)"`
	Name         string        `gorm:"type:varchar(200);not null"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Role         identity.Role `gorm:"type:varchar(20);not null"`
	Active       bool          `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
}

func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.toTenantAggregateRoot(),
		Username:            m.Username,
		Email:               m.Email,
		Name:                m.Name,
		PasswordHash:        m.PasswordHash,
		Role:                m.Role,
		Active:              m.Active,
		LastLoginAt:         m.LastLoginAt,
	}
}

// UserModelFromDomain builds the model of u
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:     u.Username,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Active:       u.Active,
		LastLoginAt:  utcPtr(u.LastLoginAt),
	}
	m.fromTenantAggregateRoot(u.TenantAggregateRoot)
	return m
}
