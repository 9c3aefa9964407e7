package identity

import "slices"

// Role is a fixed set of capabilities granted to a user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Permission is a resource:action code checked by the HTTP layer
type Permission string

const (
	PermCompanyManage   Permission = "company:manage"
	PermUserManage      Permission = "user:manage"
	PermProductRead     Permission = "product:read"
	PermProductWrite    Permission = "product:write"
	PermCustomerRead    Permission = "customer:read"
	PermCustomerWrite   Permission = "customer:write"
	PermSaleCreate      Permission = "sale:create"
	PermSaleRead        Permission = "sale:read"
	PermSaleCancel      Permission = "sale:cancel"
	PermPaymentCreate   Permission = "payment:create"
	PermPaymentDelete   Permission = "payment:delete"
	PermInstallmentRead Permission = "installment:read"
	PermReportRead      Permission = "report:read"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermCompanyManage, PermUserManage,
		PermProductRead, PermProductWrite,
		PermCustomerRead, PermCustomerWrite,
		PermSaleCreate, PermSaleRead, PermSaleCancel,
		PermPaymentCreate, PermPaymentDelete, PermInstallmentRead,
		PermReportRead,
	},
	RoleManager: {
		PermProductRead, PermProductWrite,
		PermCustomerRead, PermCustomerWrite,
		PermSaleCreate, PermSaleRead, PermSaleCancel,
		PermPaymentCreate, PermPaymentDelete, PermInstallmentRead,
		PermReportRead,
	},
	RoleCashier: {
		PermProductRead,
		PermCustomerRead, PermCustomerWrite,
		PermSaleCreate, PermSaleRead,
		PermPaymentCreate, PermInstallmentRead,
	},
}

// RolePermissions returns the permissions granted to role
func RolePermissions(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}

// PermissionCodes returns the permissions of role as plain strings, the form carried in JWT claims
func PermissionCodes(role Role) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// HasPermission reports whether role grants perm
func (r Role) HasPermission(perm Permission) bool {
	return slices.Contains(rolePermissions[r], perm)
}
