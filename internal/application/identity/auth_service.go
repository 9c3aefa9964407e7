// Package identity registers companies and authenticates their staff.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// RegistrationScope saves a new company and its first admin atomically
type RegistrationScope interface {
	Execute(ctx context.Context, fn func(companies identity.CompanyRepository, users identity.UserRepository) error) error
}

// AuthService handles authentication operations
type AuthService struct {
	companyRepo  identity.CompanyRepository
	userRepo     identity.UserRepository
	registration RegistrationScope
	jwtService   *auth.JWTService
	blacklist    auth.TokenBlacklist
	logger       *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	companyRepo identity.CompanyRepository,
	userRepo identity.UserRepository,
	registration RegistrationScope,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		companyRepo:  companyRepo,
		userRepo:     userRepo,
		registration: registration,
		jwtService:   jwtService,
		blacklist:    blacklist,
		logger:       logger,
	}
}

// Register creates a company and its first admin, then logs the admin in
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("USERNAME_TAKEN", "Username is already in use")
	}

	company, err := identity.NewCompany(req.CompanyName, req.CompanyDocument)
	if err != nil {
		return nil, err
	}
	if company.Document != "" {
		if _, err := s.companyRepo.FindByDocument(ctx, company.Document); err == nil {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "A company with this document is already registered")
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	user, err := identity.NewUser(company.ID, req.Username, req.Password, req.Name, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(req.Email); err != nil {
		return nil, err
	}
	user.RecordLogin()

	err = s.registration.Execute(ctx, func(companies identity.CompanyRepository, users identity.UserRepository) error {
		if err := companies.Save(ctx, company); err != nil {
			return err
		}
		return users.Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	company.ClearDomainEvents()

	s.logger.Info("Company registered",
		zap.String("tenant_id", company.ID.String()),
		zap.String("username", user.Username))
	return s.issue(user)
}

// Login verifies the credentials and returns a token pair
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown user", zap.String("username", req.Username))
			return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
		}
		return nil, err
	}
	if !user.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", user.Username))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}
	if !user.Active {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account has been deactivated")
	}
	if err := s.ensureCompanyActive(ctx, user.TenantID); err != nil {
		return nil, err
	}

	user.RecordLogin()
	if err := s.userRepo.Save(ctx, user); err != nil {
		// the login itself succeeded
		s.logger.Error("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("tenant_id", user.TenantID.String()),
		zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Refresh rotates a refresh token. The old refresh token is revoked so it
// cannot be replayed, and the role is reloaded so permission changes apply.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
		}
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
	tenantID, err := claims.TenantUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid tenant in token")
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user in token")
	}

	if s.blacklist != nil {
		if revoked, err := s.blacklist.IsRevoked(ctx, claims.ID); err != nil {
			return nil, err
		} else if revoked {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
		}
		if revoked, err := s.blacklist.IsUserRevoked(ctx, userID, claims.IssuedAtTime()); err != nil {
			return nil, err
		} else if revoked {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Session has been revoked")
		}
	}

	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "User no longer exists")
		}
		return nil, err
	}
	if !user.Active {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account has been deactivated")
	}
	if err := s.ensureCompanyActive(ctx, tenantID); err != nil {
		return nil, err
	}

	if s.blacklist != nil {
		if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
			return nil, err
		}
	}
	return s.issue(user)
}

// Logout revokes the caller's access token and, when given, its refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.blacklist == nil {
		return nil
	}
	if input.TokenJTI != "" {
		if err := s.blacklist.Revoke(ctx, input.TokenJTI, input.TokenTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err == nil && claims.UserID == input.UserID.String() {
			if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
				return err
			}
		}
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// ChangePassword replaces the caller's password and ends every open session
func (s *AuthService) ChangePassword(ctx context.Context, tenantID, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if !user.VerifyPassword(req.OldPassword) {
		return shared.NewDomainError("INVALID_CREDENTIALS", "Current password is incorrect")
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	if s.blacklist != nil {
		if err := s.blacklist.RevokeUser(ctx, user.ID, s.jwtService.RefreshTokenExpiration()); err != nil {
			s.logger.Error("Failed to revoke sessions after password change", zap.Error(err))
		}
	}
	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) ensureCompanyActive(ctx context.Context, tenantID uuid.UUID) error {
	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if !company.Active {
		return shared.NewDomainError("COMPANY_INACTIVE", "Company has been deactivated")
	}
	return nil
}

func (s *AuthService) issue(user *identity.User) (*TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID:    user.TenantID,
		UserID:      user.ID,
		Username:    user.Username,
		Role:        string(user.Role),
		Permissions: user.Permissions(),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}
	u := ToUserResponse(user)
	return &TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  &u,
	}, nil
}
