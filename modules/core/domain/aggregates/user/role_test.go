package user_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
)

func TestNewRoleRejectsUnknownValues(t *testing.T) {
	_, err := user.NewRole("owner")
	require.Error(t, err)

	r, err := user.NewRole("tenant_admin")
	require.NoError(t, err)
	require.Equal(t, user.RoleTenantAdmin, r)
}

func TestOnlySuperAdminBypassesEntitlements(t *testing.T) {
	require.True(t, user.RoleSuperAdmin.BypassesEntitlements())
	require.False(t, user.RoleTenantAdmin.BypassesEntitlements())
	require.False(t, user.RoleMember.BypassesEntitlements())
}

func TestSuperAdminNeedsNoTenant(t *testing.T) {
	require.False(t, user.RoleSuperAdmin.RequiresTenant())
	require.True(t, user.RoleTenantAdmin.RequiresTenant())
	require.True(t, user.RoleMember.RequiresTenant())
}
