package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/recharge-dashboard/api"
	"github.com/jrsteele09/recharge-dashboard/credentials"
	"github.com/jrsteele09/recharge-dashboard/grace"
	"github.com/jrsteele09/recharge-dashboard/internal/backendfake"
	apperrors "github.com/jrsteele09/recharge-dashboard/internal/errors"
	"github.com/jrsteele09/recharge-dashboard/navigation"
	"github.com/jrsteele09/recharge-dashboard/pipeline"
	"github.com/jrsteele09/recharge-dashboard/sessions"
	"github.com/jrsteele09/recharge-dashboard/storage"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type env struct {
	backend  *backendfake.Backend
	clock    *testingclock.FakeClock
	store    *credentials.Store
	nav      *navigation.History
	customer *sessions.Provider
	admin    *sessions.Provider
	api      *api.CustomerAPI
	adminAPI *api.AdminAPI
}

func newEnv(t *testing.T) *env {
	t.Helper()
	backend := backendfake.New("api-test")
	_, err := backend.AddAccount(backendfake.RoleCustomer, "Asha", "asha@example.com", "9000000001", "secret1", 250)
	require.NoError(t, err)
	_, err = backend.AddAccount(backendfake.RoleAdmin, "Root", "root@example.com", "", "rootpass", 0)
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	clk := testingclock.NewFakeClock(time.Now())
	window := grace.Start(clk, 2*time.Second)
	store := credentials.NewStore(storage.NewMemory(), zerolog.Nop())
	nav := navigation.NewHistory("/dashboard", nil)

	e := &env{
		backend:  backend,
		clock:    clk,
		store:    store,
		nav:      nav,
		customer: sessions.NewProvider(tenants.Customer, store, sessions.WithClock(clk), sessions.OnHydrated(window.MarkInitialized)),
		admin:    sessions.NewProvider(tenants.Admin, store, sessions.WithClock(clk)),
	}
	inv := pipeline.NewInvalidator(window, store, nav, pipeline.WithInvalidatorClock(clk))
	inv.OnInvalidate(func(t tenants.Tenant) {
		switch t.ID {
		case tenants.CustomerID:
			e.customer.Resync()
		case tenants.AdminID:
			e.admin.Resync()
		}
	})
	client := pipeline.NewClient(srv.URL, store, inv)
	e.api = api.NewCustomerAPI(client)
	e.adminAPI = api.NewAdminAPI(client)

	e.customer.Mount()
	e.admin.Mount()
	clk.Step(sessions.DefaultHydrationDelay)
	return e
}

func TestCustomerFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resp, err := api.SignInCustomer(ctx, e.api, e.customer, "asha@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "Asha", resp.User.Name())
	require.True(t, e.customer.Authenticated())
	require.Equal(t, "Asha", e.customer.Profile().Name())

	balance, err := e.api.WalletBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, 250.0, balance)

	operators, err := e.api.Operators(ctx)
	require.NoError(t, err)
	require.Contains(t, operators, "jio")

	payment, err := e.api.Recharge(ctx, api.RechargeRequest{Mobile: "9000000002", Operator: "jio", Amount: 50})
	require.NoError(t, err)
	require.Equal(t, 201.0, payment.Balance)
	require.NotEmpty(t, payment.Transaction.Receipt)

	_, err = e.api.PayBill(ctx, api.BillRequest{Biller: "power", AccountNumber: "AC-1", Amount: 20})
	require.NoError(t, err)

	txs, err := e.api.Transactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	profile, err := e.api.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, "asha@example.com", profile["email"])
}

func TestSignInRejectsBadPassword(t *testing.T) {
	e := newEnv(t)

	_, err := api.SignInCustomer(context.Background(), e.api, e.customer, "asha@example.com", "wrong")

	var statusErr *pipeline.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	require.Equal(t, "Invalid email or password", statusErr.Message)
	require.False(t, e.customer.Authenticated())
}

func TestRevokedSessionRedirectsToLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	resp, err := api.SignInCustomer(ctx, e.api, e.customer, "asha@example.com", "secret1")
	require.NoError(t, err)

	e.backend.RevokeAll(resp.UserID)
	_, err = e.api.WalletBalance(ctx)

	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.False(t, e.customer.Authenticated())
	require.Equal(t, []string{"/login"}, e.nav.Visited())
}

func TestAdminFlowUsesExplicitCredentials(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := api.SignInCustomer(ctx, e.api, e.customer, "asha@example.com", "secret1")
	require.NoError(t, err)
	_, err = api.SignInAdmin(ctx, e.adminAPI, e.admin, "root@example.com", "rootpass")
	require.NoError(t, err)

	creds := api.AdminCredentialsFrom(e.admin.State().Credentials)

	customers, err := e.adminAPI.Customers(ctx, creds)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	require.Equal(t, "Asha", customers[0].Name)

	_, err = e.adminAPI.UpdateCommission(ctx, creds, "jio", 4)
	require.NoError(t, err)

	summary, err := e.adminAPI.Dashboard(ctx, creds)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Customers)

	txs, err := e.adminAPI.Transactions(ctx, creds, customers[0].ID)
	require.NoError(t, err)
	require.Empty(t, txs)

	e.nav.SetLocation("/admin/dashboard")
	// Without credentials the admin call is rejected and only the admin session is dropped.
	_, err = e.adminAPI.Customers(ctx, api.AdminCredentials{})
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.False(t, e.admin.Authenticated())
	require.True(t, e.customer.Authenticated())
	require.Equal(t, "/admin/login", e.nav.Location())
}

func TestSignOutRevokesBackendSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	resp, err := api.SignInCustomer(ctx, e.api, e.customer, "asha@example.com", "secret1")
	require.NoError(t, err)
	key := resp.LoginKey

	require.NoError(t, sessions.SignOut(ctx, e.customer, e.api.Logout, e.nav))
	require.False(t, e.customer.Authenticated())
	require.Equal(t, "/login", e.nav.Location())

	// The old key no longer works even if presented explicitly.
	e.store.Set(tenants.Customer, key, resp.UserID, nil)
	_, err = e.api.WalletBalance(ctx)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRegistrationAndOTP(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	reg, err := e.api.Register(ctx, api.RegisterRequest{Name: "Ravi", Email: "ravi@example.com", Phone: "9000000003", Password: "ravipass"})
	require.NoError(t, err)
	require.NotZero(t, reg.UserID)

	_, err = e.api.SendOTP(ctx, "9000000003")
	require.NoError(t, err)
	_, err = e.api.VerifyOTP(ctx, "9000000003", backendfake.FixedOTP)
	require.NoError(t, err)

	_, err = e.api.ForgotPassword(ctx, "ravi@example.com")
	require.NoError(t, err)
	_, err = e.api.ResetPassword(ctx, "ravi@example.com", backendfake.FixedOTP, "newpass")
	require.NoError(t, err)

	_, err = api.SignInCustomer(ctx, e.api, e.customer, "ravi@example.com", "newpass")
	require.NoError(t, err)
}
