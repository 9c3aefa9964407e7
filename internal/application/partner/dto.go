package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CreateCustomerRequest represents a request to register a customer
type CreateCustomerRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Document    string           `json:"document" binding:"omitempty,cpf_cnpj"`
	Email       string           `json:"email" binding:"omitempty,email"`
	Phone       string           `json:"phone" binding:"max=30"`
	Address     string           `json:"address" binding:"max=300"`
	City        string           `json:"city" binding:"max=100"`
	State       string           `json:"state" binding:"omitempty,len=2"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
	Notes       string           `json:"notes" binding:"max=1000"`
}

// UpdateCustomerRequest updates a customer. Nil fields are kept.
type UpdateCustomerRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Document    *string          `json:"document" binding:"omitempty"`
	Email       *string          `json:"email" binding:"omitempty"`
	Phone       *string          `json:"phone" binding:"omitempty,max=30"`
	Address     *string          `json:"address" binding:"omitempty,max=300"`
	City        *string          `json:"city" binding:"omitempty,max=100"`
	State       *string          `json:"state" binding:"omitempty,max=2"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
	Notes       *string          `json:"notes" binding:"omitempty,max=1000"`
	Active      *bool            `json:"active"`
}

// CustomerListFilter is bound from the query string
type CustomerListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Document    string          `json:"document,omitempty"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Address     string          `json:"address,omitempty"`
	City        string          `json:"city,omitempty"`
	State       string          `json:"state,omitempty"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Notes       string          `json:"notes,omitempty"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToCustomerResponse converts a domain customer
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
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
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ToCustomerResponses converts a list of domain customers
func ToCustomerResponses(list []partner.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(list))
	for i := range list {
		out[i] = ToCustomerResponse(&list[i])
	}
	return out
}
