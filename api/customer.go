package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jrsteele09/recharge-dashboard/pipeline"
)

// CustomerAPI calls customer endpoints. Authenticated calls carry no credentials of their own;
// the pipeline injects the stored customer session.
type CustomerAPI struct {
	client *pipeline.Client
}

func NewCustomerAPI(client *pipeline.Client) *CustomerAPI {
	return &CustomerAPI{client: client}
}

func (a *CustomerAPI) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	in := map[string]string{"email": email, "password": password}
	if err := a.client.Post(ctx, pipeline.EndpointLogin, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *CustomerAPI) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := a.client.Post(ctx, pipeline.EndpointRegister, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *CustomerAPI) SendOTP(ctx context.Context, phone string) (*MessageResponse, error) {
	return a.message(ctx, pipeline.EndpointSendOTP, map[string]string{"phone": phone})
}

func (a *CustomerAPI) VerifyOTP(ctx context.Context, phone, otp string) (*MessageResponse, error) {
	return a.message(ctx, pipeline.EndpointVerifyOTP, map[string]string{"phone": phone, "otp": otp})
}

func (a *CustomerAPI) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	return a.message(ctx, pipeline.EndpointForgotPassword, map[string]string{"email": email})
}

func (a *CustomerAPI) ResetPassword(ctx context.Context, email, otp, password string) (*MessageResponse, error) {
	return a.message(ctx, pipeline.EndpointResetPassword, map[string]string{
		"email":    email,
		"otp":      otp,
		"password": password,
	})
}

// Logout ends the session on the backend. Local state is the caller's business.
func (a *CustomerAPI) Logout(ctx context.Context) error {
	_, err := a.message(ctx, pipeline.EndpointLogout, nil)
	return err
}

func (a *CustomerAPI) Profile(ctx context.Context) (map[string]any, error) {
	var out struct {
		User map[string]any `json:"user"`
	}
	if err := a.client.Post(ctx, pipeline.EndpointProfile, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (a *CustomerAPI) WalletBalance(ctx context.Context) (float64, error) {
	var out struct {
		Balance float64 `json:"balance"`
	}
	if err := a.client.Post(ctx, pipeline.EndpointWalletBalance, nil, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (a *CustomerAPI) Operators(ctx context.Context) ([]string, error) {
	var out struct {
		Operators []string `json:"operators"`
	}
	if err := a.client.Get(ctx, pipeline.EndpointRechargeOperator, nil, &out); err != nil {
		return nil, err
	}
	return out.Operators, nil
}

func (a *CustomerAPI) Recharge(ctx context.Context, req RechargeRequest) (*PaymentResponse, error) {
	var out PaymentResponse
	if err := a.client.Post(ctx, pipeline.EndpointRecharge, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *CustomerAPI) PayBill(ctx context.Context, req BillRequest) (*PaymentResponse, error) {
	var out PaymentResponse
	if err := a.client.Post(ctx, pipeline.EndpointBillPay, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions lists the signed-in customer's transactions. page is ignored when zero.
func (a *CustomerAPI) Transactions(ctx context.Context, page int) ([]Transaction, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	var out struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := a.client.Get(ctx, pipeline.EndpointTransactions, query, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

func (a *CustomerAPI) message(ctx context.Context, endpoint string, in any) (*MessageResponse, error) {
	var out MessageResponse
	if err := a.client.Post(ctx, endpoint, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
