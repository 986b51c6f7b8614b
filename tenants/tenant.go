package tenants

import "fmt"

// ID names one of the independently authenticated principal categories.
type ID string

const (
	CustomerID ID = "customer"
	AdminID    ID = "admin"
)

// InjectionPolicy decides whether the request pipeline attaches stored credentials on its own.
type InjectionPolicy int

const (
	// AutoInject merges the stored login key and user id into every eligible request.
	AutoInject InjectionPolicy = iota
	// CallerSupplied leaves credentials to the API call sites.
	CallerSupplied
)

func (p InjectionPolicy) String() string {
	switch p {
	case AutoInject:
		return "auto-inject"
	case CallerSupplied:
		return "caller-supplied"
	default:
		return fmt.Sprintf("InjectionPolicy(%d)", int(p))
	}
}

// Persisted key suffixes. The full key is KeyPrefix + suffix.
const (
	tokenKey   = "login_key"
	userIDKey  = "user_id"
	profileKey = "user_data"
)

// Tenant is a session channel: one principal category with its own storage namespace,
// login surface and credential injection policy.
type Tenant struct {
	ID         ID              `json:"id"`
	Name       string          `json:"name"`
	KeyPrefix  string          `json:"key_prefix"`  // Prepended to every persisted key
	LoginRoute string          `json:"login_route"` // Where an invalidated session is sent
	HomeRoute  string          `json:"home_route"`  // Landing route after sign-in
	Injection  InjectionPolicy `json:"injection"`
}

var (
	// Customer keeps the generic, unprefixed key names.
	Customer = Tenant{
		ID:         CustomerID,
		Name:       "Customer",
		KeyPrefix:  "",
		LoginRoute: "/login",
		HomeRoute:  "/dashboard",
		Injection:  AutoInject,
	}

	Admin = Tenant{
		ID:         AdminID,
		Name:       "Admin",
		KeyPrefix:  "admin_",
		LoginRoute: "/admin/login",
		HomeRoute:  "/admin/dashboard",
		Injection:  CallerSupplied,
	}
)

func (t Tenant) TokenKey() string   { return t.KeyPrefix + tokenKey }
func (t Tenant) UserIDKey() string  { return t.KeyPrefix + userIDKey }
func (t Tenant) ProfileKey() string { return t.KeyPrefix + profileKey }

// Keys returns the persisted keys that together make up one session.
func (t Tenant) Keys() []string {
	return []string{t.TokenKey(), t.UserIDKey(), t.ProfileKey()}
}

func (t Tenant) String() string {
	return string(t.ID)
}

// All returns every known tenant.
func All() []Tenant {
	return []Tenant{Customer, Admin}
}
