package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/identity"
)

// RegisterRequest creates a company together with its first admin
type RegisterRequest struct {
	CompanyName     string `json:"company_name" binding:"required,min=1,max=200"`
	CompanyDocument string `json:"company_document" binding:"omitempty,cpf_cnpj"`
	Username        string `json:"username" binding:"required,min=3,max=100"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	Name            string `json:"name" binding:"required,max=200"`
	Email           string `json:"email" binding:"omitempty,email"`
}

// LoginRequest contains the credentials for a login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	UserID       uuid.UUID
	TokenJTI     string
	TokenTTL     time.Duration
	RefreshToken string
}

// ChangePasswordRequest changes the caller's own password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// CreateUserRequest adds a staff member to the caller's company
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,max=200"`
	Email    string `json:"email" binding:"omitempty,email"`
	Role     string `json:"role" binding:"required,oneof=admin manager cashier"`
}

// ChangeRoleRequest assigns a new role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin manager cashier"`
}

// UserListFilter is bound from the query string
type UserListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
}

// TokenResponse is returned by login, register and refresh
type TokenResponse struct {
	AccessToken           string        `json:"access_token"`
	RefreshToken          string        `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time     `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time     `json:"refresh_token_expires_at"`
	TokenType             string        `json:"token_type"`
	User                  *UserResponse `json:"user,omitempty"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToUserResponse converts a domain user
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		Permissions: u.Permissions(),
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// UpdateCompanyRequest updates the company profile. Nil fields are kept.
type UpdateCompanyRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=200"`
	TradeName    *string `json:"trade_name" binding:"omitempty,max=200"`
	Document     *string `json:"document" binding:"omitempty"`
	Email        *string `json:"email" binding:"omitempty"`
	Phone        *string `json:"phone" binding:"omitempty,max=30"`
	PixKey       *string `json:"pix_key" binding:"omitempty,max=77"`
	MerchantCity *string `json:"merchant_city" binding:"omitempty,max=100"`
	Timezone     *string `json:"timezone" binding:"omitempty,max=64"`
}

// CompanyResponse represents a company in API responses
type CompanyResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	TradeName    string    `json:"trade_name,omitempty"`
	Document     string    `json:"document,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	PixKey       string    `json:"pix_key,omitempty"`
	MerchantCity string    `json:"merchant_city,omitempty"`
	Timezone     string    `json:"timezone"`
	PixEnabled   bool      `json:"pix_enabled"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToCompanyResponse converts a domain company
func ToCompanyResponse(c *identity.Company) CompanyResponse {
	return CompanyResponse{
		ID:           c.ID,
		Name:         c.Name,
		TradeName:    c.TradeName,
		Document:     c.Document,
		Email:        c.Email,
		Phone:        c.Phone,
		PixKey:       c.PixKey,
		MerchantCity: c.MerchantCity,
		Timezone:     c.Timezone,
		PixEnabled:   c.HasPix(),
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
