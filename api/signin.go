package api

import (
	"context"

	"github.com/jrsteele09/recharge-dashboard/sessions"
)

// SignInCustomer logs in against the backend and stores the resulting session through p.
func SignInCustomer(ctx context.Context, a *CustomerAPI, p *sessions.Provider, email, password string) (*LoginResponse, error) {
	resp, err := a.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := p.Login(resp.LoginKey, resp.UserID, resp.User); err != nil {
		return nil, err
	}
	return resp, nil
}

// SignInAdmin is SignInCustomer for the admin tenant.
func SignInAdmin(ctx context.Context, a *AdminAPI, p *sessions.Provider, email, password string) (*LoginResponse, error) {
	resp, err := a.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := p.Login(resp.LoginKey, resp.UserID, resp.User); err != nil {
		return nil, err
	}
	return resp, nil
}
