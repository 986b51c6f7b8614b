package cli

import (
	"context"
	"fmt"

	"github.com/jrsteele09/recharge-dashboard/api"
	"github.com/jrsteele09/recharge-dashboard/sessions"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/spf13/cobra"
)

func newLoginCmd(rt *runtime) *cobra.Command {
	var (
		admin    bool
		email    string
		password string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Example: `  dashboard login --email asha@example.com --password secret
  dashboard login --admin --email root@example.com --password secret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := tenantFor(admin)
			a, err := rt.start(cmd, t.LoginRoute)
			if err != nil {
				return err
			}

			p := a.Provider(t)
			guard := sessions.RouteGuard{Provider: p, Navigator: rt.nav, Guest: true}
			if guard.Check() == sessions.RedirectToHome {
				printf(cmd.OutOrStdout(), "Already signed in as %s\n", displayName(p.State()))
				return nil
			}

			ctx := commandContext(cmd)
			var resp *api.LoginResponse
			if admin {
				resp, err = api.SignInAdmin(ctx, a.AdminAPI, p, email, password)
			} else {
				resp, err = api.SignInCustomer(ctx, a.CustomerAPI, p, email, password)
			}
			if err != nil {
				return fmt.Errorf("sign in failed: %w", err)
			}

			rt.nav.Navigate(t.HomeRoute)
			printf(cmd.OutOrStdout(), "Signed in as %s (user %d)\n", resp.User.Name(), resp.UserID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "Sign in to the admin console")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	var admin bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := tenantFor(admin)
			a, err := rt.start(cmd, t.HomeRoute)
			if err != nil {
				return err
			}

			p := a.Provider(t)
			if !p.Authenticated() {
				printf(cmd.OutOrStdout(), "Not signed in\n")
				return nil
			}

			backendLogout := a.CustomerAPI.Logout
			if admin {
				creds := api.AdminCredentialsFrom(p.State().Credentials)
				backendLogout = func(ctx context.Context) error { return a.AdminAPI.Logout(ctx, creds) }
			}
			if err := sessions.SignOut(commandContext(cmd), p, backendLogout, rt.nav); err != nil {
				printf(cmd.ErrOrStderr(), "Warning: backend logout failed: %v\n", err)
			}
			printf(cmd.OutOrStdout(), "Signed out\n")
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "Sign out of the admin console")
	return cmd
}

func newStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.start(cmd, "/")
			if err != nil {
				return err
			}
			for _, t := range tenants.All() {
				s := a.Provider(t).State()
				switch s.Phase() {
				case sessions.HydratedAuthenticated:
					printf(cmd.OutOrStdout(), "%-8s signed in as %s (user %d)\n", t.Name, displayName(s), s.Credentials.UserID())
				case sessions.HydratedAnonymous:
					printf(cmd.OutOrStdout(), "%-8s signed out\n", t.Name)
				default:
					printf(cmd.OutOrStdout(), "%-8s %s\n", t.Name, s.Phase())
				}
			}
			return nil
		},
	}
}

func newRegisterCmd(rt *runtime) *cobra.Command {
	var req api.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.start(cmd, tenants.Customer.LoginRoute)
			if err != nil {
				return err
			}
			resp, err := a.CustomerAPI.Register(commandContext(cmd), req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			printf(cmd.OutOrStdout(), "Registered user %d, sign in with `dashboard login`\n", resp.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Mobile number")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func displayName(s sessions.State) string {
	if name := s.Profile().Name(); name != "" {
		return name
	}
	return fmt.Sprintf("user %d", s.Credentials.UserID())
}
