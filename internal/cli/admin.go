package cli

import (
	"github.com/jrsteele09/recharge-dashboard/api"
	"github.com/jrsteele09/recharge-dashboard/internal/app"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/spf13/cobra"
)

func newAdminCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin console operations",
	}
	cmd.AddCommand(
		newAdminDashboardCmd(rt),
		newAdminCustomersCmd(rt),
		newAdminTransactionsCmd(rt),
		newAdminCommissionCmd(rt),
	)
	return cmd
}

// adminSession starts the client on the admin console and returns the explicit credentials
// admin calls need.
func adminSession(rt *runtime, cmd *cobra.Command) (*app.App, api.AdminCredentials, error) {
	a, err := rt.protected(cmd, tenants.Admin)
	if err != nil {
		return nil, api.AdminCredentials{}, err
	}
	return a, api.AdminCredentialsFrom(a.Admin.State().Credentials), nil
}

func newAdminDashboardCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show platform totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, creds, err := adminSession(rt, cmd)
			if err != nil {
				return err
			}
			summary, err := a.AdminAPI.Dashboard(commandContext(cmd), creds)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Customers:    %d\nTransactions: %d\nVolume:       %.2f\nCommission:   %.2f\n",
				summary.Customers, summary.Transactions, summary.Volume, summary.Commission)
			return nil
		},
	}
}

func newAdminCustomersCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "List customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, creds, err := adminSession(rt, cmd)
			if err != nil {
				return err
			}
			customers, err := a.AdminAPI.Customers(commandContext(cmd), creds)
			if err != nil {
				return err
			}
			for _, c := range customers {
				printf(cmd.OutOrStdout(), "%-6d %-20s %-28s %10.2f\n", c.ID, c.Name, c.Email, c.Balance)
			}
			return nil
		},
	}
}

func newAdminTransactionsCmd(rt *runtime) *cobra.Command {
	var customerID int64
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions across customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, creds, err := adminSession(rt, cmd)
			if err != nil {
				return err
			}
			txs, err := a.AdminAPI.Transactions(commandContext(cmd), creds, customerID)
			if err != nil {
				return err
			}
			printTransactions(cmd, txs)
			return nil
		},
	}
	cmd.Flags().Int64Var(&customerID, "customer", 0, "Only this customer's transactions")
	return cmd
}

func newAdminCommissionCmd(rt *runtime) *cobra.Command {
	var (
		operator string
		percent  float64
	)
	cmd := &cobra.Command{
		Use:   "commission",
		Short: "Set an operator's commission percentage",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, creds, err := adminSession(rt, cmd)
			if err != nil {
				return err
			}
			resp, err := a.AdminAPI.UpdateCommission(commandContext(cmd), creds, operator, percent)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "Operator")
	cmd.Flags().Float64Var(&percent, "percent", 0, "Commission percentage")
	_ = cmd.MarkFlagRequired("operator")
	_ = cmd.MarkFlagRequired("percent")
	return cmd
}
