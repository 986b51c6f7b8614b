package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/recharge-dashboard/credentials"
	"github.com/jrsteele09/recharge-dashboard/grace"
	"github.com/jrsteele09/recharge-dashboard/internal/logging"
	"github.com/jrsteele09/recharge-dashboard/internal/metrics"
	"github.com/jrsteele09/recharge-dashboard/navigation"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/rs/zerolog"
	"k8s.io/utils/clock"
)

// DefaultRedirectReset is how long the in-flight flag stays set after an invalidation.
const DefaultRedirectReset = time.Second

// Outcome is what HandleUnauthorized did with an authorization failure.
type Outcome int

const (
	// SuppressedGrace means the startup grace window was still open.
	SuppressedGrace Outcome = iota
	// SuppressedInFlight means another failure already triggered a redirect.
	SuppressedInFlight
	// Invalidated means the tenant's session was cleared.
	Invalidated
)

func (o Outcome) String() string {
	switch o {
	case SuppressedGrace:
		return "suppressed_grace"
	case SuppressedInFlight:
		return "suppressed_in_flight"
	case Invalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// InvalidatorOption configures an Invalidator.
type InvalidatorOption func(*Invalidator)

func WithInvalidatorClock(c clock.WithDelayedExecution) InvalidatorOption {
	return func(i *Invalidator) { i.clock = c }
}

func WithRedirectReset(d time.Duration) InvalidatorOption {
	return func(i *Invalidator) {
		if d > 0 {
			i.resetAfter = d
		}
	}
}

func WithInvalidatorMetrics(m *metrics.Pipeline) InvalidatorOption {
	return func(i *Invalidator) { i.metrics = m }
}

func WithInvalidatorLogger(l zerolog.Logger) InvalidatorOption {
	return func(i *Invalidator) { i.logger = l }
}

// Invalidator turns backend authorization failures into session teardown and a redirect to
// the tenant's login screen. A single in-flight flag is shared by all tenants, so a burst of
// concurrent failures tears down at most one session and navigates at most once.
type Invalidator struct {
	window     *grace.Window
	store      *credentials.Store
	nav        navigation.Navigator
	clock      clock.WithDelayedExecution
	resetAfter time.Duration
	metrics    *metrics.Pipeline
	logger     zerolog.Logger

	inFlight atomic.Bool

	mu          sync.Mutex
	subscribers []func(tenants.Tenant)
}

// NewInvalidator creates an Invalidator. A nil window is treated as closed.
func NewInvalidator(window *grace.Window, store *credentials.Store, nav navigation.Navigator, opts ...InvalidatorOption) *Invalidator {
	i := &Invalidator{
		window:     window,
		store:      store,
		nav:        nav,
		clock:      clock.RealClock{},
		resetAfter: DefaultRedirectReset,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.Component(i.logger, "invalidator")
	return i
}

// OnInvalidate registers fn to run after a tenant's stored session has been cleared and before
// navigation. Session providers use it to resync.
func (i *Invalidator) OnInvalidate(fn func(tenants.Tenant)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.subscribers = append(i.subscribers, fn)
}

// InFlight reports whether a redirect is currently in progress.
func (i *Invalidator) InFlight() bool {
	return i.inFlight.Load()
}

// HandleUnauthorized processes one authorization failure for tenant t.
func (i *Invalidator) HandleUnauthorized(t tenants.Tenant) Outcome {
	outcome := i.handle(t)
	i.metrics.ObserveAuthFailure(t.String(), outcome.String())
	return outcome
}

func (i *Invalidator) handle(t tenants.Tenant) Outcome {
	log := i.logger.With().Str("tenant", t.String()).Logger()

	if i.window != nil && i.window.Open() {
		log.Debug().Msg("authorization failure during startup grace window, ignoring")
		return SuppressedGrace
	}
	if !i.inFlight.CompareAndSwap(false, true) {
		log.Debug().Msg("redirect already in flight, ignoring authorization failure")
		return SuppressedInFlight
	}

	i.store.Clear(t)
	log.Info().Msg("session invalidated by backend")

	i.mu.Lock()
	subscribers := append([]func(tenants.Tenant){}, i.subscribers...)
	i.mu.Unlock()
	for _, fn := range subscribers {
		fn(t)
	}

	if i.nav != nil && i.nav.Location() != t.LoginRoute {
		i.nav.Navigate(t.LoginRoute)
	}

	i.clock.AfterFunc(i.resetAfter, func() {
		i.inFlight.Store(false)
	})
	return Invalidated
}
