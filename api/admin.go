package api

import (
	"context"

	"github.com/jrsteele09/recharge-dashboard/pipeline"
)

// AdminAPI calls admin endpoints. The pipeline never injects admin credentials, so every
// authenticated call takes them as an argument.
type AdminAPI struct {
	client *pipeline.Client
}

func NewAdminAPI(client *pipeline.Client) *AdminAPI {
	return &AdminAPI{client: client}
}

func (a *AdminAPI) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	in := map[string]string{"email": email, "password": password}
	if err := a.client.Post(ctx, pipeline.EndpointAdminLogin, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminAPI) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := a.client.Post(ctx, pipeline.EndpointAdminForgotPassword, map[string]string{"email": email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminAPI) Logout(ctx context.Context, creds AdminCredentials) error {
	return a.client.Post(ctx, pipeline.EndpointAdminLogout, creds, nil)
}

func (a *AdminAPI) Dashboard(ctx context.Context, creds AdminCredentials) (*DashboardSummary, error) {
	var out DashboardSummary
	if err := a.client.Post(ctx, pipeline.EndpointAdminDashboard, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminAPI) Customers(ctx context.Context, creds AdminCredentials) ([]Customer, error) {
	var out struct {
		Customers []Customer `json:"customers"`
	}
	if err := a.client.Post(ctx, pipeline.EndpointAdminCustomers, creds, &out); err != nil {
		return nil, err
	}
	return out.Customers, nil
}

// Transactions lists all transactions, or one customer's when customerID is non-zero.
func (a *AdminAPI) Transactions(ctx context.Context, creds AdminCredentials, customerID int64) ([]Transaction, error) {
	in := struct {
		AdminCredentials
		CustomerID int64 `json:"customer_id,omitempty"`
	}{creds, customerID}

	var out struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := a.client.Post(ctx, pipeline.EndpointAdminTransactions, in, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

func (a *AdminAPI) UpdateCommission(ctx context.Context, creds AdminCredentials, operator string, percent float64) (*MessageResponse, error) {
	in := struct {
		AdminCredentials
		Operator string  `json:"operator"`
		Percent  float64 `json:"percent"`
	}{creds, operator, percent}

	var out MessageResponse
	if err := a.client.Post(ctx, pipeline.EndpointAdminCommission, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
