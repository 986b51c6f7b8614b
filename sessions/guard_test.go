package sessions_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/recharge-dashboard/credentials"
	"github.com/jrsteele09/recharge-dashboard/internal/utils"
	"github.com/jrsteele09/recharge-dashboard/navigation"
	"github.com/jrsteele09/recharge-dashboard/sessions"
	"github.com/jrsteele09/recharge-dashboard/storage"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/stretchr/testify/require"
)

func TestGuardDecisions(t *testing.T) {
	authed := credentials.Credentials{Token: utils.Ptr("k"), PrincipalID: utils.Ptr(int64(1))}

	tests := []struct {
		name  string
		state sessions.State
		guard sessions.Decision
		guest sessions.Decision
	}{
		{"unhydrated anonymous", sessions.State{}, sessions.Wait, sessions.Allow},
		{"unhydrated provisional", sessions.State{Credentials: authed}, sessions.Allow, sessions.Allow},
		{"hydrated anonymous", sessions.State{Hydrated: true}, sessions.RedirectToLogin, sessions.Allow},
		{"hydrated authenticated", sessions.State{Hydrated: true, Credentials: authed}, sessions.Allow, sessions.RedirectToHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.guard, sessions.Guard(tt.state))
			require.Equal(t, tt.guest, sessions.GuestGuard(tt.state))
		})
	}
}

func TestRouteGuardRedirectsOnlyAfterHydration(t *testing.T) {
	p, _, clk := newProvider(t, tenants.Customer, storage.NewMemory())
	nav := navigation.NewHistory("/dashboard", nil)
	g := sessions.RouteGuard{Provider: p, Navigator: nav}

	p.Mount()
	require.Equal(t, sessions.Wait, g.Check())
	require.Empty(t, nav.Visited())

	clk.Step(100 * time.Millisecond)
	require.Equal(t, sessions.RedirectToLogin, g.Check())
	require.Equal(t, []string{"/login"}, nav.Visited())
}

func TestGuestRouteGuardSendsHome(t *testing.T) {
	p, _, clk := newProvider(t, tenants.Admin, storage.NewMemory())
	require.NoError(t, p.Login("a", 1, nil))
	nav := navigation.NewHistory("/admin/login", nil)
	g := sessions.RouteGuard{Provider: p, Navigator: nav, Guest: true}

	p.Mount()
	require.Equal(t, sessions.Allow, g.Check())

	clk.Step(100 * time.Millisecond)
	require.Equal(t, sessions.RedirectToHome, g.Check())
	require.Equal(t, "/admin/dashboard", nav.Location())

	// Already there: no second navigation.
	nav.SetLocation("/admin/dashboard")
	g.Check()
	require.Len(t, nav.Visited(), 1)
}
