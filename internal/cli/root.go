// Package cli implements the dashboard command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/recharge-dashboard/internal/app"
	"github.com/jrsteele09/recharge-dashboard/internal/config"
	"github.com/jrsteele09/recharge-dashboard/navigation"
	"github.com/jrsteele09/recharge-dashboard/sessions"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/spf13/cobra"
)

// Options configures the CLI. Zero values load configuration from the environment and write to
// the process's standard streams.
type Options struct {
	Config     *config.Config
	AppOptions []app.Option
}

type runtime struct {
	opts Options
	app  *app.App
	nav  *navigation.History
}

// NewRootCmd builds the command tree.
func NewRootCmd(opts Options) *cobra.Command {
	rt := &runtime{opts: opts}

	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Recharge dashboard client",
		Long:          `dashboard signs customers and admins in to the recharge backend and runs wallet, recharge and admin operations with the stored session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newStatusCmd(rt),
		newRegisterCmd(rt),
		newBalanceCmd(rt),
		newOperatorsCmd(rt),
		newRechargeCmd(rt),
		newBillCmd(rt),
		newTransactionsCmd(rt),
		newWatchCmd(rt),
		newAdminCmd(rt),
		newFakeBackendCmd(),
	)
	rt.closeAfter(root)
	return root
}

// closeAfter makes every command release the client when it returns, including on error,
// which PersistentPostRunE does not cover.
func (rt *runtime) closeAfter(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) (err error) {
			defer func() {
				if closeErr := rt.close(); err == nil {
					err = closeErr
				}
			}()
			return run(c, args)
		}
	}
	for _, child := range cmd.Commands() {
		rt.closeAfter(child)
	}
}

// start wires the client with the navigator parked at route and waits for both sessions to
// hydrate.
func (rt *runtime) start(cmd *cobra.Command, route string) (*app.App, error) {
	if rt.app != nil {
		rt.nav.SetLocation(route)
		return rt.app, nil
	}

	cfg := rt.opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	rt.nav = navigation.NewHistory(route, cmd.OutOrStdout())
	appOpts := append([]app.Option{
		app.WithNavigator(rt.nav),
		app.WithOutput(cmd.OutOrStdout()),
		app.WithLogOutput(cmd.ErrOrStderr()),
	}, rt.opts.AppOptions...)

	a, err := app.New(cfg, appOpts...)
	if err != nil {
		return nil, err
	}
	a.Start()
	if err := a.WaitReady(commandContext(cmd)); err != nil {
		_ = a.Close()
		return nil, err
	}
	rt.app = a
	return a, nil
}

// protected starts the client on t's home screen and refuses to continue without a session.
func (rt *runtime) protected(cmd *cobra.Command, t tenants.Tenant) (*app.App, error) {
	a, err := rt.start(cmd, t.HomeRoute)
	if err != nil {
		return nil, err
	}
	guard := sessions.RouteGuard{Provider: a.Provider(t), Navigator: rt.nav}
	if guard.Check() != sessions.Allow {
		return nil, fmt.Errorf("not signed in as %s, run `dashboard login%s` first", t.Name, adminFlag(t))
	}
	return a, nil
}

func (rt *runtime) close() error {
	if rt.app == nil {
		return nil
	}
	err := rt.app.Close()
	rt.app = nil
	return err
}

func adminFlag(t tenants.Tenant) string {
	if t.ID == tenants.AdminID {
		return " --admin"
	}
	return ""
}

func tenantFor(admin bool) tenants.Tenant {
	if admin {
		return tenants.Admin
	}
	return tenants.Customer
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
