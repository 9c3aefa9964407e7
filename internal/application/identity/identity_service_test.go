package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPassword = "segredo123"

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	return de.Code
}

type registrationScope struct {
	companies identity.CompanyRepository
	users     identity.UserRepository
}

func (s *registrationScope) Execute(_ context.Context, fn func(identity.CompanyRepository, identity.UserRepository) error) error {
	return fn(s.companies, s.users)
}

type authFixture struct {
	companies *testutil.MockCompanyRepository
	users     *testutil.MockUserRepository
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	service   *AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		companies: new(testutil.MockCompanyRepository),
		users:     new(testutil.MockUserRepository),
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-at-least-32-chars",
			RefreshSecret:          "test-refresh-secret-key-32-chars",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "retailpos-test",
		}),
		blacklist: auth.NewInMemoryTokenBlacklist(),
	}
	scope := &registrationScope{companies: f.companies, users: f.users}
	f.service = NewAuthService(f.companies, f.users, scope, f.jwt, f.blacklist, nil)
	return f
}

func newCompany(t *testing.T) *identity.Company {
	t.Helper()
	c, err := identity.NewCompany("Mercadinho Boa Vista", "")
	require.NoError(t, err)
	return c
}

func newUser(t *testing.T, tenantID uuid.UUID, username string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(tenantID, username, testPassword, "Staff "+username, role)
	require.NoError(t, err)
	return u
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture()
	f.users.On("ExistsByUsername", mock.Anything, "dono").Return(false, nil)
	f.companies.On("FindByDocument", mock.Anything, "11222333000181").Return(nil, shared.ErrNotFound)
	f.companies.On("Save", mock.Anything, mock.AnythingOfType("*identity.Company")).Return(nil)
	f.users.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

	resp, err := f.service.Register(context.Background(), RegisterRequest{
		CompanyName:     "Mercadinho Boa Vista",
		CompanyDocument: "11.222.333/0001-81",
		Username:        "dono",
		Password:        testPassword,
		Name:            "Carlos",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "admin", resp.User.Role)
	assert.Contains(t, resp.User.Permissions, string(identity.PermUserManage))

	claims, err := f.jwt.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.TenantID.String(), claims.TenantID)
	assert.True(t, claims.HasPermission(string(identity.PermCompanyManage)))
}

func TestAuthService_RegisterRejectsTakenUsername(t *testing.T) {
	f := newAuthFixture()
	f.users.On("ExistsByUsername", mock.Anything, "dono").Return(true, nil)

	_, err := f.service.Register(context.Background(), RegisterRequest{CompanyName: "X", Username: "dono", Password: testPassword, Name: "C"})
	assert.Equal(t, "USERNAME_TAKEN", errCode(t, err))
	f.companies.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture()
	company := newCompany(t)
	user := newUser(t, company.ID, "caixa01", identity.RoleCashier)
	f.users.On("FindByUsername", mock.Anything, "caixa01").Return(user, nil)
	f.users.On("FindByUsername", mock.Anything, "ghost").Return(nil, shared.ErrNotFound)
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	f.users.On("Save", mock.Anything, user).Return(nil)

	resp, err := f.service.Login(context.Background(), LoginRequest{Username: "caixa01", Password: testPassword})
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)
	claims, err := f.jwt.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "cashier", claims.Role)
	assert.False(t, claims.HasPermission(string(identity.PermSaleCancel)))

	_, err = f.service.Login(context.Background(), LoginRequest{Username: "caixa01", Password: "wrong-pass1"})
	assert.Equal(t, "INVALID_CREDENTIALS", errCode(t, err))

	_, err = f.service.Login(context.Background(), LoginRequest{Username: "ghost", Password: testPassword})
	assert.Equal(t, "INVALID_CREDENTIALS", errCode(t, err))
}

func TestAuthService_LoginBlockedAccounts(t *testing.T) {
	t.Run("inactive user", func(t *testing.T) {
		f := newAuthFixture()
		user := newUser(t, uuid.New(), "caixa02", identity.RoleCashier)
		require.NoError(t, user.Deactivate())
		f.users.On("FindByUsername", mock.Anything, "caixa02").Return(user, nil)

		_, err := f.service.Login(context.Background(), LoginRequest{Username: "caixa02", Password: testPassword})
		assert.Equal(t, "ACCOUNT_INACTIVE", errCode(t, err))
	})

	t.Run("inactive company", func(t *testing.T) {
		f := newAuthFixture()
		company := newCompany(t)
		require.NoError(t, company.Deactivate())
		user := newUser(t, company.ID, "caixa03", identity.RoleCashier)
		f.users.On("FindByUsername", mock.Anything, "caixa03").Return(user, nil)
		f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)

		_, err := f.service.Login(context.Background(), LoginRequest{Username: "caixa03", Password: testPassword})
		assert.Equal(t, "COMPANY_INACTIVE", errCode(t, err))
	})
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	f := newAuthFixture()
	company := newCompany(t)
	user := newUser(t, company.ID, "gerente", identity.RoleManager)
	f.users.On("FindByUsername", mock.Anything, "gerente").Return(user, nil)
	f.users.On("FindByIDForTenant", mock.Anything, company.ID, user.ID).Return(user, nil)
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	f.users.On("Save", mock.Anything, user).Return(nil)

	login, err := f.service.Login(context.Background(), LoginRequest{Username: "gerente", Password: testPassword})
	require.NoError(t, err)

	refreshed, err := f.service.Refresh(context.Background(), RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = f.service.Refresh(context.Background(), RefreshRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, "TOKEN_REVOKED", errCode(t, err))

	_, err = f.service.Refresh(context.Background(), RefreshRequest{RefreshToken: login.AccessToken})
	assert.Equal(t, "TOKEN_INVALID", errCode(t, err))
}

func TestAuthService_ChangePasswordEndsSessions(t *testing.T) {
	f := newAuthFixture()
	company := newCompany(t)
	user := newUser(t, company.ID, "gerente", identity.RoleManager)
	f.users.On("FindByUsername", mock.Anything, "gerente").Return(user, nil)
	f.users.On("FindByIDForTenant", mock.Anything, company.ID, user.ID).Return(user, nil)
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	f.users.On("Save", mock.Anything, user).Return(nil)

	login, err := f.service.Login(context.Background(), LoginRequest{Username: "gerente", Password: testPassword})
	require.NoError(t, err)

	err = f.service.ChangePassword(context.Background(), company.ID, user.ID, ChangePasswordRequest{OldPassword: "nope", NewPassword: "novasenha1"})
	assert.Equal(t, "INVALID_CREDENTIALS", errCode(t, err))

	require.NoError(t, f.service.ChangePassword(context.Background(), company.ID, user.ID,
		ChangePasswordRequest{OldPassword: testPassword, NewPassword: "novasenha1"}))
	assert.True(t, user.VerifyPassword("novasenha1"))

	_, err = f.service.Refresh(context.Background(), RefreshRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, "TOKEN_REVOKED", errCode(t, err))
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture()
	company := newCompany(t)
	user := newUser(t, company.ID, "gerente", identity.RoleManager)
	f.users.On("FindByUsername", mock.Anything, "gerente").Return(user, nil)
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	f.users.On("Save", mock.Anything, user).Return(nil)

	login, err := f.service.Login(context.Background(), LoginRequest{Username: "gerente", Password: testPassword})
	require.NoError(t, err)
	access, err := f.jwt.ValidateAccessToken(login.AccessToken)
	require.NoError(t, err)
	refresh, err := f.jwt.ValidateRefreshToken(login.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), LogoutInput{
		UserID:       user.ID,
		TokenJTI:     access.ID,
		TokenTTL:     access.RemainingTTL(),
		RefreshToken: login.RefreshToken,
	}))

	revoked, err := f.blacklist.IsRevoked(context.Background(), access.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = f.blacklist.IsRevoked(context.Background(), refresh.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestUserService_ChangeRoleRevokesSessions(t *testing.T) {
	users := new(testutil.MockUserRepository)
	blacklist := auth.NewInMemoryTokenBlacklist()
	jwt := auth.NewJWTService(config.JWTConfig{Secret: "s", RefreshTokenExpiration: time.Hour, Issuer: "t"})
	svc := NewUserService(users, jwt, blacklist, nil)

	tenantID := uuid.New()
	admin := newUser(t, tenantID, "admin", identity.RoleAdmin)
	cashier := newUser(t, tenantID, "caixa", identity.RoleCashier)
	users.On("FindByIDForTenant", mock.Anything, tenantID, cashier.ID).Return(cashier, nil)
	users.On("Save", mock.Anything, cashier).Return(nil)

	issuedAt := time.Now().Add(-time.Minute)
	resp, err := svc.ChangeRole(context.Background(), tenantID, admin.ID, cashier.ID, ChangeRoleRequest{Role: "manager"})
	require.NoError(t, err)
	assert.Equal(t, "manager", resp.Role)
	assert.Contains(t, resp.Permissions, string(identity.PermSaleCancel))

	revoked, err := blacklist.IsUserRevoked(context.Background(), cashier.ID, issuedAt)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = svc.ChangeRole(context.Background(), tenantID, admin.ID, admin.ID, ChangeRoleRequest{Role: "cashier"})
	assert.Equal(t, "CANNOT_MODIFY_SELF", errCode(t, err))
}

func TestUserService_Create(t *testing.T) {
	users := new(testutil.MockUserRepository)
	svc := NewUserService(users, nil, nil, nil)
	tenantID, adminID := uuid.New(), uuid.New()
	users.On("ExistsByUsername", mock.Anything, "caixa09").Return(false, nil)
	users.On("ExistsByUsername", mock.Anything, "taken").Return(true, nil)
	users.On("Save", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

	resp, err := svc.Create(context.Background(), tenantID, adminID, CreateUserRequest{
		Username: "caixa09", Password: testPassword, Name: "Bia", Role: "cashier",
	})
	require.NoError(t, err)
	assert.Equal(t, tenantID, resp.TenantID)
	assert.Equal(t, "cashier", resp.Role)

	_, err = svc.Create(context.Background(), tenantID, adminID, CreateUserRequest{Username: "taken", Password: testPassword, Role: "cashier"})
	assert.Equal(t, "USERNAME_TAKEN", errCode(t, err))

	_, err = svc.Create(context.Background(), tenantID, adminID, CreateUserRequest{Username: "caixa09", Password: testPassword, Role: "owner"})
	assert.Equal(t, "INVALID_ROLE", errCode(t, err))
}

func TestUserService_Deactivate(t *testing.T) {
	users := new(testutil.MockUserRepository)
	svc := NewUserService(users, nil, nil, nil)
	tenantID := uuid.New()
	target := newUser(t, tenantID, "caixa", identity.RoleCashier)
	users.On("FindByIDForTenant", mock.Anything, tenantID, target.ID).Return(target, nil)
	users.On("Save", mock.Anything, target).Return(nil)

	require.NoError(t, svc.Deactivate(context.Background(), tenantID, uuid.New(), target.ID))
	assert.False(t, target.Active)

	err := svc.Deactivate(context.Background(), tenantID, uuid.New(), target.ID)
	assert.Equal(t, "INVALID_STATE", errCode(t, err))
}

func TestCompanyService_Update(t *testing.T) {
	companies := new(testutil.MockCompanyRepository)
	svc := NewCompanyService(companies, nil)
	company := newCompany(t)
	companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	companies.On("Save", mock.Anything, company).Return(nil)

	trade := "Boa Vista"
	key := "pix@boavista.com.br"
	city := "Recife"
	tz := "America/Recife"
	resp, err := svc.Update(context.Background(), company.ID, UpdateCompanyRequest{
		TradeName:    &trade,
		PixKey:       &key,
		MerchantCity: &city,
		Timezone:     &tz,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mercadinho Boa Vista", resp.Name)
	assert.Equal(t, trade, resp.TradeName)
	assert.True(t, resp.PixEnabled)
	assert.Equal(t, tz, resp.Timezone)

	bad := "Nowhere/City"
	_, err = svc.Update(context.Background(), company.ID, UpdateCompanyRequest{Timezone: &bad})
	assert.Equal(t, "INVALID_TIMEZONE", errCode(t, err))
}

func TestCompanyService_IsActive(t *testing.T) {
	companies := new(testutil.MockCompanyRepository)
	svc := NewCompanyService(companies, nil)
	company := newCompany(t)
	missing := uuid.New()
	companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	companies.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	companies.On("Save", mock.Anything, company).Return(nil)

	active, err := svc.IsActive(context.Background(), company.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, svc.Deactivate(context.Background(), company.ID))
	active, err = svc.IsActive(context.Background(), company.ID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = svc.IsActive(context.Background(), missing)
	require.NoError(t, err)
	assert.False(t, active)
}
