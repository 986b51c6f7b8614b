// Package api wraps the backend's REST endpoints in typed calls. Customer calls rely on the
// pipeline to attach the stored customer session; admin calls take credentials explicitly.
package api

import (
	"github.com/jrsteele09/recharge-dashboard/credentials"
)

// LoginResponse is what both login endpoints return.
type LoginResponse struct {
	LoginKey string              `json:"login_key"`
	UserID   int64               `json:"user_id"`
	User     credentials.Profile `json:"user"`
}

// MessageResponse is the backend's generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

type RechargeRequest struct {
	Mobile   string  `json:"mobile"`
	Operator string  `json:"operator"`
	Amount   float64 `json:"amount"`
}

type BillRequest struct {
	Biller        string  `json:"biller"`
	AccountNumber string  `json:"account_number"`
	Amount        float64 `json:"amount"`
}

type Transaction struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"user_id"`
	Kind       string  `json:"kind"`
	Receipt    string  `json:"receipt"`
	Reference  string  `json:"reference"`
	Operator   string  `json:"operator,omitempty"`
	Amount     float64 `json:"amount"`
	Commission float64 `json:"commission"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
}

// PaymentResponse is returned by recharge and bill payment.
type PaymentResponse struct {
	Transaction Transaction `json:"transaction"`
	Balance     float64     `json:"balance"`
}

type Customer struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone,omitempty"`
	Balance  float64 `json:"balance"`
	Verified bool    `json:"verified"`
}

type DashboardSummary struct {
	Customers    int     `json:"customers"`
	Transactions int     `json:"transactions"`
	Volume       float64 `json:"volume"`
	Commission   float64 `json:"commission"`
}

// AdminCredentials are passed explicitly on every admin call.
type AdminCredentials struct {
	LoginKey string `json:"login_key"`
	UserID   int64  `json:"user_id"`
}

// AdminCredentialsFrom reads the admin session out of stored credentials.
func AdminCredentialsFrom(c credentials.Credentials) AdminCredentials {
	return AdminCredentials{LoginKey: c.LoginKey(), UserID: c.UserID()}
}
