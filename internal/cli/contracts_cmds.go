package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/rental-portal/internal/backend"
	"github.com/spec-kit/rental-portal/internal/billing"
	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/reports"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

func ContractsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Rental contracts and their payment status",
	}
	cmd.AddCommand(contractsListCmd(env), contractsCreateCmd(env), contractsDeactivateCmd(env))
	return cmd
}

func contractsListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contracts, most urgent payment first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, err := env.CurrentUser(ctx)
			if err != nil {
				return err
			}
			contracts, err := listContracts(ctx, env, user)
			if err != nil {
				return err
			}
			printContracts(env.Out, classifiedRows(reports.BuildRows(contracts, env.Now(), env.Logger)))
			return nil
		},
	}
}

func listContracts(ctx context.Context, env *Env, user *domain.User) ([]domain.Contract, error) {
	var (
		contracts []domain.Contract
		err       error
	)
	if user.IsLandlord() {
		contracts, err = env.Client.ListLandlordContracts(ctx, user.ID)
	} else {
		contracts, err = env.Client.ListTenantContracts(ctx, user.ID)
	}
	if err != nil {
		return nil, apperrors.NewFetchError("contracts", err)
	}
	return contracts, nil
}

func contractsCreateCmd(env *Env) *cobra.Command {
	var form backend.NewContract
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a contract for one of your properties",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := env.CurrentUser(cmd.Context(), domain.UserTypeLandlord); err != nil {
				return err
			}
			if err := env.Client.CreateContract(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Contract created for %s.\n", form.TenantEmail)
			return nil
		},
	}
	cmd.Flags().Int64Var(&form.PropertyID, "property", 0, "property id")
	cmd.Flags().StringVar(&form.TenantEmail, "tenant", "", "tenant email")
	cmd.Flags().Float64Var(&form.MonthlyValue, "monthly", 0, "monthly rent")
	cmd.Flags().Float64Var(&form.Deposit, "deposit", 0, "deposit")
	cmd.Flags().IntVar(&form.Duration, "duration", 12, "duration in months")
	cmd.Flags().IntVar(&form.PaymentDay, "payment-day", 0, "day of month rent is due (1-28)")
	_ = cmd.MarkFlagRequired("property")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func contractsDeactivateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <contract-id>",
		Short: "End a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return apperrors.NewFieldError("id", "contract id must be a number")
			}
			if _, err := env.CurrentUser(cmd.Context(), domain.UserTypeLandlord); err != nil {
				return err
			}
			if err := env.Client.DeactivateContract(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Contract #%d deactivated.\n", id)
			return nil
		},
	}
}

func PaymentsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Rent payments",
	}

	var payment backend.NewPayment
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a payment against a contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := env.CurrentUser(cmd.Context(), domain.UserTypeLandlord); err != nil {
				return err
			}
			if err := env.Client.RegisterPayment(cmd.Context(), payment); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Payment of %.2f registered on contract #%d.\n", payment.Value+payment.Tax, payment.ContractID)
			return nil
		},
	}
	add.Flags().Int64Var(&payment.ContractID, "contract", 0, "contract id")
	add.Flags().Float64Var(&payment.Value, "value", 0, "amount paid")
	add.Flags().Float64Var(&payment.Tax, "tax", 0, "tax or late fee")
	_ = add.MarkFlagRequired("contract")

	cmd.AddCommand(add)
	return cmd
}

func PropertiesCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "properties",
		Short: "Properties you own",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your properties",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := env.CurrentUser(cmd.Context(), domain.UserTypeLandlord)
			if err != nil {
				return err
			}
			properties, err := env.Client.ListLandlordProperties(cmd.Context(), user.ID)
			if err != nil {
				return apperrors.NewFetchError("properties", err)
			}
			w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCITY\tACTIVE")
			for _, p := range properties {
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", p.ID, p.Name, p.City, p.Active)
			}
			return w.Flush()
		},
	})
	return cmd
}

func printContracts(out io.Writer, items []billing.Classified) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No contracts.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROPERTY\tMONTHLY\tDAY\tSTATUS\tDUE")
	for _, item := range items {
		c := item.Contract
		property := "-"
		if c.Property != nil {
			property = c.Property.Name
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%d\t%s\t%s\n", c.ID, property, c.MonthlyValue, c.PaymentDay, item.Classification.Status, item.Classification.Message)
	}
	_ = w.Flush()
}
