package tenants_test

import (
	"testing"

	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	require.Equal(t, []string{"login_key", "user_id", "user_data"}, tenants.Customer.Keys())
	require.Equal(t, []string{"admin_login_key", "admin_user_id", "admin_user_data"}, tenants.Admin.Keys())
}

func TestKeysAreDisjoint(t *testing.T) {
	seen := map[string]tenants.ID{}
	for _, tenant := range tenants.All() {
		for _, k := range tenant.Keys() {
			owner, dup := seen[k]
			require.False(t, dup, "key %q shared by %s and %s", k, owner, tenant.ID)
			seen[k] = tenant.ID
		}
	}
}

func TestPolicies(t *testing.T) {
	require.Equal(t, tenants.AutoInject, tenants.Customer.Injection)
	require.Equal(t, tenants.CallerSupplied, tenants.Admin.Injection)
	require.Equal(t, "caller-supplied", tenants.Admin.Injection.String())
	require.NotEqual(t, tenants.Customer.LoginRoute, tenants.Admin.LoginRoute)
}
