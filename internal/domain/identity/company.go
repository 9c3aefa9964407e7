// Package identity covers companies (tenants), their users and role mapping.
package identity

import (
	"strings"
	"time"
	_ "time/tzdata" // company timezones must resolve on slim images

	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
)

// Company is the tenant. Every business record belongs to exactly one company.
type Company struct {
	shared.BaseAggregateRoot
	Name         string
	TradeName    string
	Document     string // CNPJ digits
	Email        string
	Phone        string
	PixKey       string
	MerchantCity string
	Timezone     string
	Active       bool
}

// DefaultTimezone applies when a company does not choose one
const DefaultTimezone = "America/Sao_Paulo"

// NewCompany creates an active company
func NewCompany(name, document string) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Company name cannot exceed 200 characters")
	}
	c := &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Timezone:          DefaultTimezone,
		Active:            true,
	}
	if err := c.SetDocument(document); err != nil {
		return nil, err
	}
	c.AddDomainEvent(NewCompanyCreatedEvent(c))
	return c, nil
}

// SetDocument validates and stores a CNPJ (or CPF for sole traders). Empty clears it.
func (c *Company) SetDocument(document string) error {
	if strings.TrimSpace(document) == "" {
		c.Document = ""
		return nil
	}
	doc, err := valueobject.ParseDocument(document)
	if err != nil {
		return shared.NewDomainError("INVALID_DOCUMENT", "Invalid CNPJ/CPF")
	}
	c.Document = doc.String()
	return nil
}

// UpdateProfile changes the descriptive fields
func (c *Company) UpdateProfile(name, tradeName, email, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	c.Name = name
	c.TradeName = strings.TrimSpace(tradeName)
	c.Email = strings.TrimSpace(email)
	c.Phone = strings.TrimSpace(phone)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// SetPixSettings configures the receiving PIX key and merchant city printed on QR codes
func (c *Company) SetPixSettings(pixKey, merchantCity string) error {
	pixKey = strings.TrimSpace(pixKey)
	if len(pixKey) > 77 {
		return shared.NewDomainError("INVALID_PIX_KEY", "PIX key cannot exceed 77 characters")
	}
	c.PixKey = pixKey
	c.MerchantCity = strings.TrimSpace(merchantCity)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// HasPix returns true when PIX charges can be generated
func (c *Company) HasPix() bool {
	return c.PixKey != "" && c.MerchantCity != ""
}

// DisplayName prefers the trade name
func (c *Company) DisplayName() string {
	if c.TradeName != "" {
		return c.TradeName
	}
	return c.Name
}

// Location returns the company timezone, falling back to DefaultTimezone
func (c *Company) Location() *time.Location {
	tz := c.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SetTimezone sets the IANA zone used for due dates and daily report boundaries
func (c *Company) SetTimezone(tz string) error {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		tz = DefaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return shared.NewDomainError("INVALID_TIMEZONE", "Unknown timezone "+tz)
	}
	c.Timezone = tz
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Company) Deactivate() error {
	if !c.Active {
		return shared.NewDomainError("INVALID_STATE", "Company is already inactive")
	}
	c.Active = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}
