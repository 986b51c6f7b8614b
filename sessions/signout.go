package sessions

import (
	"context"

	"github.com/jrsteele09/recharge-dashboard/navigation"
)

// SignOut tells the backend the session is over, then clears local state and moves to the
// tenant's login screen whatever the backend said. The backend error is returned for display
// only; local cleanup has already happened by then.
func SignOut(ctx context.Context, p *Provider, backendLogout func(context.Context) error, nav navigation.Navigator) error {
	var backendErr error
	if backendLogout != nil {
		if backendErr = backendLogout(ctx); backendErr != nil {
			p.logger.Warn().Err(backendErr).Msg("backend logout failed, clearing local session anyway")
		}
	}

	p.Logout()

	if nav != nil {
		nav.Navigate(p.tenant.LoginRoute)
	}
	return backendErr
}
