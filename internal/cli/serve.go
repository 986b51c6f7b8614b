package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/recharge-dashboard/internal/backendfake"
	apperrors "github.com/jrsteele09/recharge-dashboard/internal/errors"
	"github.com/jrsteele09/recharge-dashboard/internal/metrics"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newWatchCmd(rt *runtime) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the wallet balance until interrupted or signed out",
		Long: `watch polls the wallet balance and prints every change. When DASHBOARD_METRICS_ADDR is set
the pipeline metrics are served there for the lifetime of the command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.protected(cmd, tenants.Customer)
			if err != nil {
				return err
			}

			displayAppname(cmd.OutOrStdout(), a.Config.AppName)

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr := a.Config.MetricsAddr; addr != "" {
				server := &http.Server{Addr: addr, Handler: metricsMux(a.Registry)}
				go listenAndServe(server, a.Logger)
				defer func() { _ = shutdown(server, a.Logger) }()
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			last := -1.0
			for {
				balance, err := a.CustomerAPI.WalletBalance(ctx)
				switch {
				case apperrors.Transient(err):
					printf(cmd.ErrOrStderr(), "poll failed, retrying: %v\n", err)
				case err != nil && !a.Customer.Authenticated():
					return fmt.Errorf("session ended: %w", err)
				case err != nil:
					printf(cmd.ErrOrStderr(), "poll failed: %v\n", err)
				case balance != last:
					printf(cmd.OutOrStdout(), "%s balance %.2f\n", time.Now().Format(time.TimeOnly), balance)
					last = balance
				}

				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Polling interval")
	return cmd
}

func newFakeBackendCmd() *cobra.Command {
	var (
		addr   string
		secret string
		seed   bool
	)
	cmd := &cobra.Command{
		Use:    "fake-backend",
		Short:  "Run an in-memory backend for local development",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
			backend := backendfake.New(secret, backendfake.WithLogger(logger))
			if seed {
				if err := seedBackend(backend, cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			displayAppname(cmd.OutOrStdout(), "Fake Backend")
			server := &http.Server{Addr: addr, Handler: backend.Handler()}
			go listenAndServe(server, logger)

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return shutdown(server, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&secret, "secret", "dev-secret", "Login key signing secret")
	cmd.Flags().BoolVar(&seed, "seed", true, "Create a demo customer and admin")
	return cmd
}

func seedBackend(b *backendfake.Backend, out io.Writer) error {
	if _, err := b.AddAccount(backendfake.RoleCustomer, "Demo Customer", "customer@example.com", "9000000001", "customer", 1000); err != nil {
		return err
	}
	if _, err := b.AddAccount(backendfake.RoleAdmin, "Demo Admin", "admin@example.com", "", "admin123", 0); err != nil {
		return err
	}
	printf(out, "Seeded customer@example.com / customer and admin@example.com / admin123\n")
	return nil
}

func metricsMux(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	return mux
}

func listenAndServe(server *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", server.Addr).Msg("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func shutdown(server *http.Server, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server.Shutdown")
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	printf(w, "%s\n", myFigure.String())
}
