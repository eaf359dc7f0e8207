package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/rental-portal/internal/billing"
	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/reports"
)

func ReportCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Payment and expense summaries",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "tenant",
			Short: "What you have paid and what is due",
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := env.CurrentUser(cmd.Context(), domain.UserTypeTenant)
				if err != nil {
					return err
				}
				report, err := reports.NewService(env.Client, env.Logger).TenantReport(cmd.Context(), user.ID, env.Now())
				if err != nil {
					return err
				}
				printContracts(env.Out, classifiedRows(report.Contracts))
				fmt.Fprintf(env.Out, "\nActive contracts: %d\nMonthly rent:     %.2f\nTotal paid:       %.2f\n",
					report.ActiveContracts, report.MonthlyTotal, report.TotalPaid)
				return nil
			},
		},
		&cobra.Command{
			Use:   "landlord",
			Short: "Earnings against maintenance expenses",
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := env.CurrentUser(cmd.Context(), domain.UserTypeLandlord)
				if err != nil {
					return err
				}
				report, err := reports.NewService(env.Client, env.Logger).LandlordReport(cmd.Context(), user.ID, env.Now())
				if err != nil {
					return err
				}
				printContracts(env.Out, classifiedRows(report.Contracts))
				fmt.Fprintf(env.Out, "\nEarnings: %.2f\nExpenses: %.2f\nBalance:  %.2f\n",
					report.TotalEarnings, report.TotalExpenses, report.NetBalance)
				if report.MaintenancesUnavailable {
					fmt.Fprintln(env.Out, "(maintenance expenses could not be loaded)")
				}
				return nil
			},
		},
	)
	return cmd
}

func classifiedRows(rows []reports.Row) []billing.Classified {
	out := make([]billing.Classified, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Classified)
	}
	return out
}
