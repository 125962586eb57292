package user

import "fmt"

// Role is a closed set of principal roles. Entitlement bypass is an explicit
// property of the role, checked once at the evaluation boundary instead of
// scattering string comparisons across call sites.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleTenantAdmin Role = "tenant_admin"
	RoleMember      Role = "member"
)

func NewRole(value string) (Role, error) {
	r := Role(value)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role: %q", value)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleMember:
		return true
	}
	return false
}

// BypassesEntitlements reports whether the role is exempt from module
// entitlement checks. Only the platform-operator role qualifies.
func (r Role) BypassesEntitlements() bool {
	return r == RoleSuperAdmin
}

// RequiresTenant reports whether a principal with this role must belong to a
// tenant. Super admins are system-wide operators with no tenant scope.
func (r Role) RequiresTenant() bool {
	return r != RoleSuperAdmin
}

func (r Role) String() string {
	return string(r)
}
