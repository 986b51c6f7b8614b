package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/recharge-dashboard/credentials"
	apperrors "github.com/jrsteele09/recharge-dashboard/internal/errors"
	"github.com/jrsteele09/recharge-dashboard/internal/logging"
	"github.com/jrsteele09/recharge-dashboard/internal/utils"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/rs/zerolog"
	"k8s.io/utils/clock"
)

// DefaultHydrationDelay leaves room for one render pass after Mount.
const DefaultHydrationDelay = 100 * time.Millisecond

// Option configures a Provider.
type Option func(*Provider)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(p *Provider) { p.clock = c }
}

// WithHydrationDelay overrides DefaultHydrationDelay.
func WithHydrationDelay(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.hydrationDelay = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// OnHydrated registers fn to run once hydration completes. The top-level provider uses it to
// close the startup grace window early.
func OnHydrated(fn func()) Option {
	return func(p *Provider) { p.hydratedHooks = append(p.hydratedHooks, fn) }
}

// Provider owns one tenant's session state and its login/logout operations.
type Provider struct {
	tenant         tenants.Tenant
	store          *credentials.Store
	clock          clock.WithDelayedExecution
	hydrationDelay time.Duration
	hydratedHooks  []func()
	logger         zerolog.Logger

	mu        sync.RWMutex
	creds     credentials.Credentials
	hydrated  bool
	mounted   bool
	nextSub   int
	listeners map[int]func(State)
}

// NewProvider reads the tenant's credentials synchronously so the first snapshot already
// reflects a persisted session.
func NewProvider(t tenants.Tenant, store *credentials.Store, opts ...Option) *Provider {
	p := &Provider{
		tenant:         t,
		store:          store,
		clock:          clock.RealClock{},
		hydrationDelay: DefaultHydrationDelay,
		logger:         zerolog.Nop(),
		listeners:      make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.Component(p.logger, "session").With().Str("tenant", t.String()).Logger()
	p.creds = store.Get(t)
	return p
}

// Tenant returns the provider's tenant.
func (p *Provider) Tenant() tenants.Tenant {
	return p.tenant
}

// Mount reconciles with storage and schedules hydration. Only the first call has an effect.
func (p *Provider) Mount() {
	p.mu.Lock()
	if p.mounted {
		p.mu.Unlock()
		return
	}
	p.mounted = true

	stored := p.store.Get(p.tenant)
	changed := stored.Authenticated() != p.creds.Authenticated()
	if changed {
		// Storage moved on since construction, e.g. another process signed in or out.
		p.creds = stored
	}
	p.mu.Unlock()

	if changed {
		p.logger.Debug().Bool("authenticated", stored.Authenticated()).Msg("resynced session from storage on mount")
		p.notify()
	}

	p.clock.AfterFunc(p.hydrationDelay, p.hydrate)
}

func (p *Provider) hydrate() {
	p.mu.Lock()
	if p.hydrated {
		p.mu.Unlock()
		return
	}
	p.hydrated = true
	p.mu.Unlock()

	p.logger.Debug().Msg("session hydrated")
	p.notify()
	for _, hook := range p.hydratedHooks {
		hook()
	}
}

// Login persists the session first and only then publishes it in memory, so a request fired
// right after Login finds consistent storage. If an attached backend rejects the write, memory
// is left signed out and ErrNotPersisted is returned. Without a backend the session lives in
// memory only.
func (p *Provider) Login(token string, principalID int64, profile credentials.Profile) error {
	if token == "" {
		return apperrors.ErrEmptyToken
	}

	if p.store.Available() && !p.store.Set(p.tenant, token, principalID, profile) {
		p.logger.Warn().Int64("user_id", principalID).Msg("sign in not persisted")
		p.Resync()
		return fmt.Errorf("%s: %w", p.tenant, apperrors.ErrNotPersisted)
	}

	p.mu.Lock()
	p.creds = credentials.Credentials{
		Token:       utils.Ptr(token),
		PrincipalID: utils.Ptr(principalID),
		Profile:     profile,
	}
	p.mu.Unlock()

	p.logger.Info().Int64("user_id", principalID).Msg("signed in")
	p.notify()
	return nil
}

// Logout clears storage, then memory. It does not navigate.
func (p *Provider) Logout() {
	p.store.Clear(p.tenant)

	p.mu.Lock()
	wasAuthenticated := p.creds.Authenticated()
	p.creds = credentials.Credentials{}
	p.mu.Unlock()

	if wasAuthenticated {
		p.logger.Info().Msg("signed out")
		p.notify()
	}
}

// Resync reloads the in-memory session from storage, e.g. after the request pipeline cleared
// it.
func (p *Provider) Resync() {
	stored := p.store.Get(p.tenant)

	p.mu.Lock()
	p.creds = stored
	p.mu.Unlock()

	p.notify()
}

// State returns a snapshot.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return State{
		Tenant:      p.tenant,
		Credentials: p.creds,
		Hydrated:    p.hydrated,
	}
}

func (p *Provider) Authenticated() bool { return p.State().Authenticated() }

func (p *Provider) Hydrated() bool { return p.State().Hydrated }

func (p *Provider) Profile() credentials.Profile { return p.State().Profile() }

// Subscribe calls fn with a fresh snapshot after every state change until the returned
// function is called. fn runs on the goroutine that caused the change.
func (p *Provider) Subscribe(fn func(State)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// WaitHydrated blocks until the provider is hydrated or ctx is done.
func (p *Provider) WaitHydrated(ctx context.Context) error {
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := p.Subscribe(func(s State) {
		if s.Hydrated {
			once.Do(func() { close(done) })
		}
	})
	defer unsubscribe()

	if p.Hydrated() {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w: %w", p.tenant, apperrors.ErrNotHydrated, ctx.Err())
	}
}

func (p *Provider) notify() {
	p.mu.RLock()
	fns := make([]func(State), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	s := p.State()
	for _, fn := range fns {
		fn(s)
	}
}
