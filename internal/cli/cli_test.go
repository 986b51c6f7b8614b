package cli_test

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/recharge-dashboard/internal/app"
	"github.com/jrsteele09/recharge-dashboard/internal/backendfake"
	"github.com/jrsteele09/recharge-dashboard/internal/cli"
	"github.com/jrsteele09/recharge-dashboard/internal/config"
	"github.com/jrsteele09/recharge-dashboard/storage"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t       *testing.T
	cfg     *config.Config
	mem     *storage.Memory
	backend *backendfake.Backend
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := backendfake.New("cli-test")
	_, err := backend.AddAccount(backendfake.RoleCustomer, "Asha", "asha@example.com", "9000000001", "secret1", 300)
	require.NoError(t, err)
	_, err = backend.AddAccount(backendfake.RoleAdmin, "Root", "root@example.com", "", "rootpass", 0)
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	return &harness{
		t:       t,
		backend: backend,
		mem:     storage.NewMemory(),
		cfg: &config.Config{
			Env:      "TEST",
			LogLevel: "error",
			API:      config.APIConfig{BaseURL: srv.URL, RequestTimeout: 5 * time.Second},
			Session: config.SessionConfig{
				GraceWindow:    2 * time.Second,
				HydrationDelay: 5 * time.Millisecond,
				RedirectReset:  50 * time.Millisecond,
			},
			Storage: config.StorageConfig{Backend: config.StorageMemory, Namespace: "test"},
		},
	}
}

// run executes one CLI invocation. Storage is shared between invocations, like the file
// backend would be between processes.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	root := cli.NewRootCmd(cli.Options{
		Config:     h.cfg,
		AppOptions: []app.Option{app.WithStorage(h.mem)},
	})
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCustomerSession(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("status")
	require.NoError(t, err)
	require.Contains(t, out, "Customer signed out")

	_, err = h.run("balance")
	require.ErrorContains(t, err, "not signed in")

	out, err = h.run("login", "--email", "asha@example.com", "--password", "secret1")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as Asha")
	require.Contains(t, out, "-> /dashboard")

	out, err = h.run("login", "--email", "asha@example.com", "--password", "secret1")
	require.NoError(t, err)
	require.Contains(t, out, "Already signed in as Asha")

	out, err = h.run("balance")
	require.NoError(t, err)
	require.Contains(t, out, "Balance: 300.00")

	out, err = h.run("recharge", "--mobile", "9000000002", "--operator", "vi", "--amount", "100")
	require.NoError(t, err)
	require.Contains(t, out, "balance 203.00")

	out, err = h.run("transactions")
	require.NoError(t, err)
	require.Contains(t, out, "recharge")

	out, err = h.run("logout")
	require.NoError(t, err)
	require.Contains(t, out, "Signed out")
	require.Contains(t, out, "-> /login")
	require.Zero(t, h.mem.Len())
}

func TestRevokedSessionIsDropped(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "--email", "asha@example.com", "--password", "secret1")
	require.NoError(t, err)

	h.backend.RevokeAll(1)

	out, err := h.run("balance")
	require.Error(t, err)
	require.Contains(t, out, "-> /login")
	require.Zero(t, h.mem.Len())
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("admin", "customers")
	require.ErrorContains(t, err, "login --admin")

	_, err = h.run("login", "--admin", "--email", "root@example.com", "--password", "rootpass")
	require.NoError(t, err)

	out, err := h.run("admin", "customers")
	require.NoError(t, err)
	require.Contains(t, out, "asha@example.com")

	out, err = h.run("admin", "commission", "--operator", "jio", "--percent", "4.5")
	require.NoError(t, err)
	require.Contains(t, out, "Commission updated")

	out, err = h.run("status")
	require.NoError(t, err)
	require.Contains(t, out, "Admin    signed in as Root")
	require.Contains(t, out, "Customer signed out")

	_, err = h.run("logout", "--admin")
	require.NoError(t, err)
	out, err = h.run("status")
	require.NoError(t, err)
	require.Contains(t, out, "Admin    signed out")
}

func TestBadCredentials(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "--email", "asha@example.com", "--password", "nope")
	require.ErrorContains(t, err, "Invalid email or password")
	require.Zero(t, h.mem.Len())
}
