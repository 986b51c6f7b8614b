// Package app wires configuration, storage, sessions and the request pipeline into one
// running client.
package app

import (
	"context"
	"io"
	"os"

	"github.com/jrsteele09/recharge-dashboard/api"
	"github.com/jrsteele09/recharge-dashboard/credentials"
	"github.com/jrsteele09/recharge-dashboard/grace"
	"github.com/jrsteele09/recharge-dashboard/internal/config"
	apperrors "github.com/jrsteele09/recharge-dashboard/internal/errors"
	"github.com/jrsteele09/recharge-dashboard/internal/logging"
	"github.com/jrsteele09/recharge-dashboard/internal/metrics"
	"github.com/jrsteele09/recharge-dashboard/navigation"
	"github.com/jrsteele09/recharge-dashboard/pipeline"
	"github.com/jrsteele09/recharge-dashboard/sessions"
	"github.com/jrsteele09/recharge-dashboard/storage"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"k8s.io/utils/clock"
)

// Option overrides a piece of the default wiring.
type Option func(*options)

type options struct {
	clock     clock.WithDelayedExecution
	storage   storage.Storage
	navigator navigation.Navigator
	out       io.Writer
	logOut    io.Writer
}

// WithClock drives every session timer from c.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(o *options) { o.clock = c }
}

// WithStorage bypasses the configured storage backend.
func WithStorage(s storage.Storage) Option {
	return func(o *options) { o.storage = s }
}

func WithNavigator(n navigation.Navigator) Option {
	return func(o *options) { o.navigator = n }
}

// WithOutput is where navigation is announced. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithLogOutput is where logs go. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOut = w }
}

// App is a fully wired dashboard client.
type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Registry    *prometheus.Registry
	Grace       *grace.Window
	Store       *credentials.Store
	Navigator   navigation.Navigator
	Invalidator *pipeline.Invalidator
	Client      *pipeline.Client
	Customer    *sessions.Provider
	Admin       *sessions.Provider
	CustomerAPI *api.CustomerAPI
	AdminAPI    *api.AdminAPI

	closers []io.Closer
}

// New builds the client. The startup grace window opens here, so New should be called as
// early as possible.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := options{
		clock:  clock.RealClock{},
		out:    os.Stdout,
		logOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}

	window := grace.Start(o.clock, cfg.Session.GraceWindow)

	a := &App{
		Config:   cfg,
		Logger:   logging.New(o.logOut, cfg.LogLevel, cfg.IsDev()),
		Registry: prometheus.NewRegistry(),
		Grace:    window,
	}

	a.Logger.Debug().Dur("grace_window", window.Duration()).Msg("startup grace window open")

	backend := o.storage
	if backend == nil {
		var closer io.Closer
		var err error
		backend, closer, err = OpenStorage(cfg.Storage)
		if err != nil {
			window.Stop()
			return nil, err
		}
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}
	a.Store = credentials.NewStore(backend, a.Logger)

	a.Navigator = o.navigator
	if a.Navigator == nil {
		a.Navigator = navigation.NewHistory("/", o.out)
	}

	pipelineMetrics := metrics.NewPipeline(a.Registry)
	a.Invalidator = pipeline.NewInvalidator(window, a.Store, a.Navigator,
		pipeline.WithInvalidatorClock(o.clock),
		pipeline.WithRedirectReset(cfg.Session.RedirectReset),
		pipeline.WithInvalidatorMetrics(pipelineMetrics),
		pipeline.WithInvalidatorLogger(a.Logger),
	)
	a.Client = pipeline.NewClient(cfg.API.BaseURL, a.Store, a.Invalidator,
		pipeline.WithTimeout(cfg.API.RequestTimeout),
		pipeline.WithMetrics(pipelineMetrics),
		pipeline.WithLogger(a.Logger),
	)

	providerOpts := []sessions.Option{
		sessions.WithClock(o.clock),
		sessions.WithHydrationDelay(cfg.Session.HydrationDelay),
		sessions.WithLogger(a.Logger),
	}
	// The customer provider is the outermost one, so its hydration marks the client ready.
	a.Customer = sessions.NewProvider(tenants.Customer, a.Store,
		append(providerOpts, sessions.OnHydrated(window.MarkInitialized))...)
	a.Admin = sessions.NewProvider(tenants.Admin, a.Store, providerOpts...)

	a.Invalidator.OnInvalidate(func(t tenants.Tenant) {
		a.Provider(t).Resync()
	})

	a.CustomerAPI = api.NewCustomerAPI(a.Client)
	a.AdminAPI = api.NewAdminAPI(a.Client)
	return a, nil
}

// OpenStorage creates the configured storage backend. The closer is nil when there is nothing
// to release.
func OpenStorage(cfg config.StorageConfig) (storage.Storage, io.Closer, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return storage.NewMemory(), nil, nil
	case config.StorageFile:
		f, err := storage.NewFile(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return f, nil, nil
	case config.StoragePostgres:
		pg, err := storage.OpenPostgres(cfg.DatabaseURL, cfg.Namespace)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg, nil
	default:
		return nil, nil, apperrors.Wrapf(apperrors.ErrInvalidConfig, "storage backend %q", cfg.Backend)
	}
}

// Provider returns the session provider for t.
func (a *App) Provider(t tenants.Tenant) *sessions.Provider {
	if t.ID == tenants.AdminID {
		return a.Admin
	}
	return a.Customer
}

// Start mounts both session providers.
func (a *App) Start() {
	a.Customer.Mount()
	a.Admin.Mount()
}

// WaitReady blocks until both providers have hydrated.
func (a *App) WaitReady(ctx context.Context) error {
	if err := a.Customer.WaitHydrated(ctx); err != nil {
		return err
	}
	return a.Admin.WaitHydrated(ctx)
}

// Close stops the grace timer and releases storage.
func (a *App) Close() error {
	a.Grace.Stop()
	var firstErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
