package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func domainCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	return de.Code
}

func TestNewCompany(t *testing.T) {
	c, err := NewCompany("  Loja da Ana  ", "11.222.333/0001-81")
	require.NoError(t, err)
	assert.Equal(t, "Loja da Ana", c.Name)
	assert.Equal(t, "11222333000181", c.Document)
	assert.True(t, c.Active)
	assert.Equal(t, DefaultTimezone, c.Timezone)
	require.Len(t, c.GetDomainEvents(), 1)
	assert.Equal(t, c.ID, c.GetDomainEvents()[0].TenantID())

	_, err = NewCompany("", "")
	assert.Equal(t, "INVALID_NAME", domainCode(t, err))

	_, err = NewCompany("X", "11.222.333/0001-00")
	assert.Equal(t, "INVALID_DOCUMENT", domainCode(t, err))
}

func TestCompany_Pix(t *testing.T) {
	c, err := NewCompany("Loja", "")
	require.NoError(t, err)
	assert.False(t, c.HasPix())

	require.NoError(t, c.SetPixSettings("loja@example.com", "Sao Paulo"))
	assert.True(t, c.HasPix())
	assert.Equal(t, "Loja", c.DisplayName())

	require.NoError(t, c.UpdateProfile("Loja", "Ana Modas", "", ""))
	assert.Equal(t, "Ana Modas", c.DisplayName())
}

func TestCompany_Deactivate(t *testing.T) {
	c, err := NewCompany("Loja", "")
	require.NoError(t, err)
	require.NoError(t, c.Deactivate())
	assert.Equal(t, "INVALID_STATE", domainCode(t, c.Deactivate()))
}

func TestNewUser(t *testing.T) {
	tenant := uuid.New()
	u, err := NewUser(tenant, " Maria.Silva ", "segredo123", "Maria", RoleCashier)
	require.NoError(t, err)
	assert.Equal(t, "maria.silva", u.Username)
	assert.True(t, u.VerifyPassword("segredo123"))
	assert.False(t, u.VerifyPassword("wrong"))
	assert.Equal(t, tenant, u.TenantID)

	tests := []struct {
		name     string
		username string
		password string
		role     Role
		code     string
	}{
		{"short username", "ab", "segredo123", RoleAdmin, "INVALID_USERNAME"},
		{"bad chars", "maria silva", "segredo123", RoleAdmin, "INVALID_USERNAME"},
		{"short password", "maria", "abc1", RoleAdmin, "INVALID_PASSWORD"},
		{"no digit", "maria", "segredosegredo", RoleAdmin, "INVALID_PASSWORD"},
		{"bad role", "maria", "segredo123", "owner", "INVALID_ROLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tenant, tt.username, tt.password, "", tt.role)
			assert.Equal(t, tt.code, domainCode(t, err))
		})
	}
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleAdmin.HasPermission(PermUserManage))
	assert.False(t, RoleManager.HasPermission(PermUserManage))
	assert.True(t, RoleManager.HasPermission(PermReportRead))
	assert.True(t, RoleCashier.HasPermission(PermPaymentCreate))
	assert.False(t, RoleCashier.HasPermission(PermPaymentDelete))
	assert.False(t, RoleCashier.HasPermission(PermReportRead))
	assert.Empty(t, RolePermissions("unknown"))

	perms := RolePermissions(RoleCashier)
	perms[0] = "mutated"
	assert.Equal(t, PermProductRead, RolePermissions(RoleCashier)[0])
}

func TestUser_ChangeRoleAndDeactivate(t *testing.T) {
	u, err := NewUser(uuid.New(), "joao", "segredo123", "", RoleCashier)
	require.NoError(t, err)

	require.NoError(t, u.ChangeRole(RoleManager))
	assert.Contains(t, u.Permissions(), string(PermReportRead))
	assert.Equal(t, "INVALID_ROLE", domainCode(t, u.ChangeRole("root")))

	require.NoError(t, u.Deactivate())
	assert.Equal(t, "INVALID_STATE", domainCode(t, u.Deactivate()))

	assert.Equal(t, "INVALID_EMAIL", domainCode(t, u.SetEmail("not-an-email")))
	require.NoError(t, u.SetEmail("joao@example.com"))
}

func TestCompany_SetTimezone(t *testing.T) {
	c, err := NewCompany("Loja Centro", "")
	require.NoError(t, err)

	require.NoError(t, c.SetTimezone("America/Manaus"))
	assert.Equal(t, "America/Manaus", c.Timezone)

	err = c.SetTimezone("Mars/Olympus")
	require.Error(t, err)
	assert.Equal(t, "America/Manaus", c.Timezone)

	require.NoError(t, c.SetTimezone(""))
	assert.Equal(t, DefaultTimezone, c.Timezone)
}
