package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService manages the staff of a company
type UserService struct {
	userRepo   identity.UserRepository
	blacklist  auth.TokenBlacklist
	jwtService *auth.JWTService
	logger     *zap.Logger
}

// NewUserService creates a new UserService. Role changes and deactivations
// revoke the user's open sessions through blacklist.
func NewUserService(userRepo identity.UserRepository, jwtService *auth.JWTService, blacklist auth.TokenBlacklist, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:   userRepo,
		blacklist:  blacklist,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Create adds a user to the tenant
func (s *UserService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("USERNAME_TAKEN", "Username is already in use")
	}
	user, err := identity.NewUser(tenantID, req.Username, req.Password, req.Name, identity.Role(req.Role))
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(req.Email); err != nil {
		return nil, err
	}
	user.SetCreatedBy(actorID)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))
	resp := ToUserResponse(user)
	return &resp, nil
}

// List returns the users of the tenant
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, filter UserListFilter) ([]UserResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "username",
		OrderDir: "asc",
		Search:   filter.Search,
	}.Normalize()
	users, err := s.userRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.userRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = ToUserResponse(&users[i])
	}
	return out, total, nil
}

// ChangeRole assigns a new role. Tokens issued before the change stop working
// so the new permissions apply on the next login.
func (s *UserService) ChangeRole(ctx context.Context, tenantID, actorID, userID uuid.UUID, req ChangeRoleRequest) (*UserResponse, error) {
	if actorID == userID {
		return nil, shared.NewDomainError("CANNOT_MODIFY_SELF", "You cannot change your own role")
	}
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if err := user.ChangeRole(identity.Role(req.Role)); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.revokeSessions(ctx, user.ID)
	resp := ToUserResponse(user)
	return &resp, nil
}

// Deactivate blocks a user and ends their sessions
func (s *UserService) Deactivate(ctx context.Context, tenantID, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return shared.NewDomainError("CANNOT_MODIFY_SELF", "You cannot deactivate yourself")
	}
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if err := user.Deactivate(); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	s.revokeSessions(ctx, user.ID)
	s.logger.Info("User deactivated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if s.blacklist == nil || s.jwtService == nil {
		return
	}
	if err := s.blacklist.RevokeUser(ctx, userID, s.jwtService.RefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke user sessions", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
