// Package backendfake is an in-process stand-in for the recharge backend. It issues JWT login
// keys, enforces them on every authenticated endpoint and answers 401 when they are missing,
// forged, expired or revoked. Tests and the CLI's offline mode run against it.
package backendfake

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/recharge-dashboard/internal/logging"
	"github.com/jrsteele09/recharge-dashboard/internal/utils"
	"github.com/jrsteele09/recharge-dashboard/pipeline"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultKeyTTL is how long a login key stays valid.
const DefaultKeyTTL = time.Hour

// FixedOTP is the one-time password every OTP request receives.
const FixedOTP = "123456"

// Option configures a Backend.
type Option func(*Backend)

// WithNow overrides the backend's time source.
func WithNow(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithKeyTTL overrides DefaultKeyTTL.
func WithKeyTTL(d time.Duration) Option {
	return func(b *Backend) { b.keyTTL = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// Backend holds accounts, issued keys and wallet history in memory.
type Backend struct {
	signer *signer
	now    func() time.Time
	keyTTL time.Duration
	logger zerolog.Logger

	mu           sync.Mutex
	nextID       int64
	accounts     map[int64]Account
	byEmail      map[string]int64
	issued       map[int64][]string
	revoked      map[string]bool
	otps         map[string]string
	transactions []Transaction
	commission   map[string]float64
}

// New creates an empty backend signing keys with secret.
func New(secret string, opts ...Option) *Backend {
	b := &Backend{
		signer:     newSigner(secret),
		now:        time.Now,
		keyTTL:     DefaultKeyTTL,
		logger:     zerolog.Nop(),
		accounts:   make(map[int64]Account),
		byEmail:    make(map[string]int64),
		issued:     make(map[int64][]string),
		revoked:    make(map[string]bool),
		otps:       make(map[string]string),
		commission: map[string]float64{"airtel": 2.5, "jio": 2.0, "vi": 3.0, "bsnl": 3.5},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.Component(b.logger, "backendfake")
	return b
}

// AddAccount registers a principal. Email is matched case-insensitively.
func (b *Backend) AddAccount(role Role, name, email, phone, password string, balance float64) (Account, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	email = strings.ToLower(email)
	if _, exists := b.byEmail[email]; exists {
		return Account{}, errors.Errorf("account %q already exists", email)
	}
	b.nextID++
	account := Account{
		ID:           b.nextID,
		Name:         name,
		Email:        email,
		Phone:        phone,
		Role:         role,
		Balance:      balance,
		Verified:     role == RoleAdmin,
		PasswordHash: hash,
	}
	b.accounts[account.ID] = account
	b.byEmail[email] = account.ID
	return account, nil
}

// RevokeAll invalidates every login key issued so far for userID, as if the session had
// been ended elsewhere.
func (b *Backend) RevokeAll(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, jti := range b.issued[userID] {
		b.revoked[jti] = true
	}
}

// Handler returns the backend's HTTP surface.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	base := []func(http.HandlerFunc) http.HandlerFunc{b.loggingMiddleware, b.recoverMiddleware, b.fieldsMiddleware}
	customer := append(append([]func(http.HandlerFunc) http.HandlerFunc{}, base...), b.requireSession(RoleCustomer))
	admin := append(append([]func(http.HandlerFunc) http.HandlerFunc{}, base...), b.requireSession(RoleAdmin))

	handle := func(method, path string, h http.HandlerFunc, mw []func(http.HandlerFunc) http.HandlerFunc) {
		mux.HandleFunc(method+" "+path, chainMiddleware(h, mw...))
	}

	handle(http.MethodPost, pipeline.EndpointLogin, b.LoginHandler(RoleCustomer), base)
	handle(http.MethodPost, pipeline.EndpointRegister, b.RegisterHandler(), base)
	handle(http.MethodPost, pipeline.EndpointSendOTP, b.SendOTPHandler(), base)
	handle(http.MethodPost, pipeline.EndpointVerifyOTP, b.VerifyOTPHandler(), base)
	handle(http.MethodPost, pipeline.EndpointForgotPassword, b.ForgotPasswordHandler(), base)
	handle(http.MethodPost, pipeline.EndpointResetPassword, b.ResetPasswordHandler(), base)
	handle(http.MethodPost, pipeline.EndpointAdminLogin, b.LoginHandler(RoleAdmin), base)
	handle(http.MethodPost, pipeline.EndpointAdminForgotPassword, b.ForgotPasswordHandler(), base)

	handle(http.MethodPost, pipeline.EndpointLogout, b.LogoutHandler(), customer)
	handle(http.MethodPost, pipeline.EndpointProfile, b.ProfileHandler(), customer)
	handle(http.MethodPost, pipeline.EndpointWalletBalance, b.BalanceHandler(), customer)
	handle(http.MethodPost, pipeline.EndpointRecharge, b.RechargeHandler(), customer)
	handle(http.MethodGet, pipeline.EndpointRechargeOperator, b.OperatorsHandler(), customer)
	handle(http.MethodGet, pipeline.EndpointTransactions, b.TransactionsHandler(false), customer)
	handle(http.MethodPost, pipeline.EndpointBillPay, b.BillPayHandler(), customer)

	handle(http.MethodPost, pipeline.EndpointAdminLogout, b.LogoutHandler(), admin)
	handle(http.MethodPost, pipeline.EndpointAdminDashboard, b.AdminDashboardHandler(), admin)
	handle(http.MethodPost, pipeline.EndpointAdminCustomers, b.AdminCustomersHandler(), admin)
	handle(http.MethodPost, pipeline.EndpointAdminTransactions, b.TransactionsHandler(true), admin)
	handle(http.MethodPost, pipeline.EndpointAdminCommission, b.CommissionHandler(), admin)

	return mux
}

func (b *Backend) issueKey(account Account) (string, error) {
	now := b.now()
	jti := uuid.NewString()
	key, err := b.signer.Sign(jwt.MapClaims{
		"sub":  utils.FormatID(account.ID),
		"role": string(account.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(b.keyTTL).Unix(),
		"jti":  jti,
	})
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	b.issued[account.ID] = append(b.issued[account.ID], jti)
	b.mu.Unlock()
	return key, nil
}

func (b *Backend) authenticate(loginKey string, userID int64, role Role) (Account, error) {
	claims, err := b.signer.Verify(loginKey, jwt.WithTimeFunc(b.now))
	if err != nil {
		return Account{}, err
	}

	sub, _ := claims["sub"].(string)
	if sub != utils.FormatID(userID) {
		return Account{}, errors.New("login key does not belong to user")
	}
	if claimRole, _ := claims["role"].(string); claimRole != string(role) {
		return Account{}, errors.Errorf("login key is for role %q", claimRole)
	}
	jti, _ := claims["jti"].(string)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revoked[jti] {
		return Account{}, errors.New("login key revoked")
	}
	account, ok := b.accounts[userID]
	if !ok {
		return Account{}, errors.New("unknown user")
	}
	return account, nil
}

func (b *Backend) revoke(loginKey string) {
	claims, err := b.signer.Verify(loginKey, jwt.WithTimeFunc(b.now))
	if err != nil {
		return
	}
	if jti, _ := claims["jti"].(string); jti != "" {
		b.mu.Lock()
		b.revoked[jti] = true
		b.mu.Unlock()
	}
}

func (b *Backend) record(tx Transaction) Transaction {
	tx.ID = int64(len(b.transactions) + 1)
	tx.CreatedAt = b.now().UTC().Format(time.RFC3339)
	tx.Status = "success"
	tx.Receipt = reference(strings.ToUpper(tx.Kind))
	b.transactions = append(b.transactions, tx)
	return tx
}

func reference(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.NewString()[:8]))
}
