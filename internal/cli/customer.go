package cli

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/recharge-dashboard/api"
	"github.com/jrsteele09/recharge-dashboard/tenants"
	"github.com/spf13/cobra"
)

func newBalanceCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the wallet balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.protected(cmd, tenants.Customer)
			if err != nil {
				return err
			}
			balance, err := a.CustomerAPI.WalletBalance(commandContext(cmd))
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Balance: %.2f\n", balance)
			return nil
		},
	}
}

func newOperatorsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "operators",
		Short: "List recharge operators",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.protected(cmd, tenants.Customer)
			if err != nil {
				return err
			}
			operators, err := a.CustomerAPI.Operators(commandContext(cmd))
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", strings.Join(operators, "\n"))
			return nil
		},
	}
}

func newRechargeCmd(rt *runtime) *cobra.Command {
	var req api.RechargeRequest
	cmd := &cobra.Command{
		Use:     "recharge",
		Short:   "Recharge a mobile number from the wallet",
		Example: `  dashboard recharge --mobile 9000000002 --operator jio --amount 199`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Amount <= 0 {
				return fmt.Errorf("--amount must be positive")
			}
			a, err := rt.protected(cmd, tenants.Customer)
			if err != nil {
				return err
			}
			resp, err := a.CustomerAPI.Recharge(commandContext(cmd), req)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Recharged %s with %.2f (receipt %s), balance %.2f\n",
				req.Mobile, req.Amount, resp.Transaction.Receipt, resp.Balance)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Mobile, "mobile", "", "Mobile number to recharge")
	cmd.Flags().StringVar(&req.Operator, "operator", "", "Operator, see `dashboard operators`")
	cmd.Flags().Float64Var(&req.Amount, "amount", 0, "Amount")
	_ = cmd.MarkFlagRequired("mobile")
	_ = cmd.MarkFlagRequired("operator")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newBillCmd(rt *runtime) *cobra.Command {
	var req api.BillRequest
	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Pay a bill from the wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Amount <= 0 {
				return fmt.Errorf("--amount must be positive")
			}
			a, err := rt.protected(cmd, tenants.Customer)
			if err != nil {
				return err
			}
			resp, err := a.CustomerAPI.PayBill(commandContext(cmd), req)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Paid %.2f to %s (receipt %s), balance %.2f\n",
				req.Amount, req.Biller, resp.Transaction.Receipt, resp.Balance)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Biller, "biller", "", "Biller")
	cmd.Flags().StringVar(&req.AccountNumber, "account", "", "Account number with the biller")
	cmd.Flags().Float64Var(&req.Amount, "amount", 0, "Amount")
	_ = cmd.MarkFlagRequired("biller")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newTransactionsCmd(rt *runtime) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List wallet transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.protected(cmd, tenants.Customer)
			if err != nil {
				return err
			}
			txs, err := a.CustomerAPI.Transactions(commandContext(cmd), page)
			if err != nil {
				return err
			}
			printTransactions(cmd, txs)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number")
	return cmd
}

func printTransactions(cmd *cobra.Command, txs []api.Transaction) {
	if len(txs) == 0 {
		printf(cmd.OutOrStdout(), "No transactions\n")
		return
	}
	for _, tx := range txs {
		printf(cmd.OutOrStdout(), "%-20s %-8s %-24s %10.2f %s\n", tx.CreatedAt, tx.Kind, tx.Reference, tx.Amount, tx.Receipt)
	}
}
