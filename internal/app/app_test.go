package app_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/recharge-dashboard/internal/app"
	"github.com/jrsteele09/recharge-dashboard/internal/config"
	apperrors "github.com/jrsteele09/recharge-dashboard/internal/errors"
	"github.com/jrsteele09/recharge-dashboard/navigation"
	"github.com/jrsteele09/recharge-dashboard/sessions"
	"github.com/jrsteele09/recharge-dashboard/storage"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Env:      "TEST",
		AppName:  "Recharge Dashboard",
		LogLevel: "error",
		API: config.APIConfig{
			BaseURL:        baseURL,
			RequestTimeout: 5 * time.Second,
		},
		Session: config.SessionConfig{
			GraceWindow:    2 * time.Second,
			HydrationDelay: 100 * time.Millisecond,
			RedirectReset:  time.Second,
		},
		Storage: config.StorageConfig{
			Backend:   config.StorageMemory,
			Namespace: "test",
		},
	}
}

func unauthorizedBackend(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid session"}`))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

type harness struct {
	app   *app.App
	clock *testingclock.FakeClock
	mem   *storage.Memory
	nav   *navigation.History
}

func newHarness(t *testing.T, baseURL string, seed map[string]string) *harness {
	t.Helper()
	h := &harness{
		clock: testingclock.NewFakeClock(time.Now()),
		mem:   storage.NewMemory(),
		nav:   navigation.NewHistory("/dashboard", nil),
	}
	for k, v := range seed {
		require.NoError(t, h.mem.SetItem(k, v))
	}
	a, err := app.New(testConfig(baseURL),
		app.WithClock(h.clock),
		app.WithStorage(h.mem),
		app.WithNavigator(h.nav),
		app.WithLogOutput(&bytes.Buffer{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	h.app = a
	return h
}

func TestPersistedSessionNeverRedirects(t *testing.T) {
	h := newHarness(t, unauthorizedBackend(t), map[string]string{"login_key": "abc", "user_id": "7"})
	guard := sessions.RouteGuard{Provider: h.app.Customer, Navigator: h.nav}

	require.True(t, h.app.Customer.Authenticated())
	require.False(t, h.app.Customer.Hydrated())

	h.app.Start()
	require.Equal(t, sessions.Allow, guard.Check())

	h.clock.Step(99 * time.Millisecond)
	require.False(t, h.app.Customer.Hydrated())
	require.Equal(t, sessions.Allow, guard.Check())

	h.clock.Step(time.Millisecond)
	require.True(t, h.app.Customer.Hydrated())
	require.Equal(t, sessions.Allow, guard.Check())
	require.Empty(t, h.nav.Visited())
}

func TestHydrationClosesGraceWindow(t *testing.T) {
	h := newHarness(t, unauthorizedBackend(t), nil)
	require.True(t, h.app.Grace.Open())

	h.app.Start()
	h.clock.Step(100 * time.Millisecond)

	require.False(t, h.app.Grace.Open())
	require.NoError(t, h.app.WaitReady(context.Background()))
}

func TestFailureInsideGraceWindowKeepsSession(t *testing.T) {
	h := newHarness(t, unauthorizedBackend(t), nil)
	require.NoError(t, h.app.Customer.Login("k1", 5, map[string]any{"name": "A"}))

	_, err := h.app.CustomerAPI.WalletBalance(context.Background())
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	v, ok, _ := h.mem.GetItem("login_key")
	require.True(t, ok)
	require.Equal(t, "k1", v)
	v, ok, _ = h.mem.GetItem("user_id")
	require.True(t, ok)
	require.Equal(t, "5", v)
	require.True(t, h.app.Customer.Authenticated())
	require.Empty(t, h.nav.Visited())
}

func TestFailureAfterGraceWindowInvalidates(t *testing.T) {
	h := newHarness(t, unauthorizedBackend(t), nil)
	require.NoError(t, h.app.Customer.Login("k1", 5, nil))
	h.clock.Step(2 * time.Second)

	_, err := h.app.CustomerAPI.WalletBalance(context.Background())
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.Zero(t, h.mem.Len())
	require.False(t, h.app.Customer.Authenticated())
	require.Equal(t, []string{"/login"}, h.nav.Visited())

	require.True(t, h.app.Invalidator.InFlight())
	require.Equal(t, 1.0, metricsCounter(t, h.app, "dashboard_auth_failures_total"))
}

func metricsCounter(t *testing.T, a *app.App, name string) float64 {
	t.Helper()
	families, err := a.Registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestProviderLookup(t *testing.T) {
	h := newHarness(t, unauthorizedBackend(t), nil)
	require.Same(t, h.app.Customer, h.app.Provider(tenants.Customer))
	require.Same(t, h.app.Admin, h.app.Provider(tenants.Admin))
}

func TestOpenStorage(t *testing.T) {
	s, closer, err := app.OpenStorage(config.StorageConfig{Backend: config.StorageMemory})
	require.NoError(t, err)
	require.Nil(t, closer)
	require.IsType(t, &storage.Memory{}, s)

	path := filepath.Join(t.TempDir(), "storage.json")
	s, _, err = app.OpenStorage(config.StorageConfig{Backend: config.StorageFile, FilePath: path})
	require.NoError(t, err)
	require.IsType(t, &storage.File{}, s)

	_, _, err = app.OpenStorage(config.StorageConfig{Backend: "redis"})
	require.ErrorIs(t, err, apperrors.ErrInvalidConfig)
}
