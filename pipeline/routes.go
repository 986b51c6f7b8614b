package pipeline

import (
	"path"
	"strings"

	"github.com/jrsteele09/recharge-dashboard/tenants"
)

// Backend endpoint paths.
const (
	// Customer Endpoints - Public
	EndpointLogin          = "/user/login"
	EndpointRegister       = "/user/register"
	EndpointSendOTP        = "/user/send-otp"
	EndpointVerifyOTP      = "/user/verify-otp"
	EndpointForgotPassword = "/user/forgot-password"
	EndpointResetPassword  = "/user/reset-password"

	// Customer Endpoints - Authenticated
	EndpointLogout           = "/user/logout"
	EndpointProfile          = "/user/profile"
	EndpointWalletBalance    = "/wallet/balance"
	EndpointRecharge         = "/recharge"
	EndpointRechargeOperator = "/recharge/operators"
	EndpointTransactions     = "/transactions"
	EndpointBillPay          = "/bill/pay"

	// Admin Endpoints - Public
	EndpointAdminLogin          = "/admin/login"
	EndpointAdminForgotPassword = "/admin/forgot-password"

	// Admin Endpoints - Authenticated
	EndpointAdminLogout       = "/admin/logout"
	EndpointAdminDashboard    = "/admin/dashboard"
	EndpointAdminCustomers    = "/admin/customers"
	EndpointAdminTransactions = "/admin/transactions"
	EndpointAdminCommission   = "/admin/commission"
)

// adminNamespace is the first path segment shared by every admin endpoint.
const adminNamespace = "admin"

// Category decides whether a request receives stored credentials.
type Category int

const (
	// Customer endpoints get the customer session injected.
	Customer Category = iota
	// Admin endpoints carry credentials supplied by the caller.
	Admin
	// Public endpoints are called without a session.
	Public
)

func (c Category) String() string {
	switch c {
	case Customer:
		return "customer"
	case Admin:
		return "admin"
	case Public:
		return "public"
	default:
		return "unknown"
	}
}

// Route is the classification of one endpoint.
type Route struct {
	Path     string
	Category Category
	// Tenant owns the session an authorization failure on this route invalidates.
	Tenant tenants.Tenant
}

// Inject reports whether the pipeline merges stored credentials into requests on this route.
func (r Route) Inject() bool {
	return r.Category != Public && r.Tenant.Injection == tenants.AutoInject
}

// Routes classifies endpoints by exact path, falling back to the admin namespace and then the
// customer tenant.
type Routes struct {
	exact map[string]Route
}

// DefaultRoutes returns the backend's route table.
func DefaultRoutes() *Routes {
	r := &Routes{exact: make(map[string]Route)}

	for _, path := range []string{
		EndpointLogin, EndpointRegister, EndpointSendOTP, EndpointVerifyOTP,
		EndpointForgotPassword, EndpointResetPassword,
	} {
		r.Add(path, Public, tenants.Customer)
	}
	for _, path := range []string{EndpointAdminLogin, EndpointAdminForgotPassword} {
		r.Add(path, Public, tenants.Admin)
	}
	for _, path := range []string{
		EndpointAdminLogout, EndpointAdminDashboard, EndpointAdminCustomers,
		EndpointAdminTransactions, EndpointAdminCommission,
	} {
		r.Add(path, Admin, tenants.Admin)
	}
	for _, path := range []string{
		EndpointLogout, EndpointProfile, EndpointWalletBalance, EndpointRecharge,
		EndpointRechargeOperator, EndpointTransactions, EndpointBillPay,
	} {
		r.Add(path, Customer, tenants.Customer)
	}
	return r
}

// Add registers or replaces an exact-path classification.
func (r *Routes) Add(path string, category Category, tenant tenants.Tenant) {
	path = normalizePath(path)
	r.exact[path] = Route{Path: path, Category: category, Tenant: tenant}
}

// Classify returns the route for an endpoint path. The path is cleaned and a query string is
// ignored.
func (r *Routes) Classify(endpoint string) Route {
	path := normalizePath(endpoint)
	if route, ok := r.exact[path]; ok {
		return route
	}
	if firstSegment(path) == adminNamespace {
		return Route{Path: path, Category: Admin, Tenant: tenants.Admin}
	}
	return Route{Path: path, Category: Customer, Tenant: tenants.Customer}
}

func normalizePath(endpoint string) string {
	if i := strings.IndexAny(endpoint, "?#"); i >= 0 {
		endpoint = endpoint[:i]
	}
	// Cleaned so that "//admin/x" or "/user/../admin/x" classify as the admin path the server
	// will actually route them to.
	return path.Clean("/" + endpoint)
}

func firstSegment(path string) string {
	segment, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return segment
}
