// Package partner holds the customers a company sells to.
package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Customer buys from a company; installment sales require one
type Customer struct {
	shared.TenantAggregateRoot
	Name        string
	Document    string // CPF or CNPJ digits
	Email       string
	Phone       string
	Address     string
	City        string
	State       string
	CreditLimit decimal.Decimal // zero means unlimited
	Notes       string
	Active      bool
	DeletedAt   *time.Time
}

// NewCustomer creates an active customer
func NewCustomer(tenantID uuid.UUID, name string) (*Customer, error) {
	c := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CreditLimit:         decimal.Zero,
		Active:              true,
	}
	if err := c.Rename(name); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Customer) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	c.Name = name
	c.Touch()
	return nil
}

// SetDocument validates a CPF/CNPJ. Empty clears it.
func (c *Customer) SetDocument(document string) error {
	if strings.TrimSpace(document) == "" {
		c.Document = ""
		return nil
	}
	doc, err := valueobject.ParseDocument(document)
	if err != nil {
		return shared.NewDomainError("INVALID_DOCUMENT", "Invalid CPF/CNPJ")
	}
	c.Document = doc.String()
	c.Touch()
	return nil
}

// SetContact updates email and phone
func (c *Customer) SetContact(email, phone string) error {
	email = strings.TrimSpace(email)
	if email != "" && !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	c.Email = email
	c.Phone = strings.TrimSpace(phone)
	c.Touch()
	return nil
}

// SetAddress updates the postal address
func (c *Customer) SetAddress(address, city, state string) {
	c.Address = strings.TrimSpace(address)
	c.City = strings.TrimSpace(city)
	c.State = strings.ToUpper(strings.TrimSpace(state))
	c.Touch()
}

// SetCreditLimit caps the outstanding debt allowed for new installment sales
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	c.CreditLimit = valueobject.RoundCents(limit)
	c.Touch()
	return nil
}

// CheckCredit verifies that adding amount to the current outstanding debt stays within the limit
func (c *Customer) CheckCredit(outstanding, amount decimal.Decimal) error {
	if c.CreditLimit.IsZero() {
		return nil
	}
	if outstanding.Add(amount).GreaterThan(c.CreditLimit) {
		return shared.NewDomainError("CREDIT_LIMIT_EXCEEDED",
			"Sale exceeds customer credit limit of "+c.CreditLimit.StringFixed(2))
	}
	return nil
}

// CanBuyOnCredit rejects inactive or deleted customers
func (c *Customer) CanBuyOnCredit() error {
	if !c.Active || c.IsDeleted() {
		return shared.NewDomainError("CUSTOMER_INACTIVE", "Customer is not active")
	}
	return nil
}

func (c *Customer) SetNotes(notes string) {
	c.Notes = strings.TrimSpace(notes)
	c.Touch()
}

func (c *Customer) Deactivate() {
	c.Active = false
	c.Touch()
}

func (c *Customer) Activate() {
	c.Active = true
	c.Touch()
}

// SoftDelete hides the customer. Callers check the outstanding debt first.
func (c *Customer) SoftDelete(outstanding decimal.Decimal) error {
	if outstanding.IsPositive() {
		return shared.NewDomainError("CUSTOMER_HAS_DEBT",
			"Cannot delete a customer with outstanding debt of "+outstanding.StringFixed(2))
	}
	now := time.Now()
	c.DeletedAt = &now
	c.Active = false
	c.Touch()
	return nil
}

func (c *Customer) IsDeleted() bool {
	return c.DeletedAt != nil
}
