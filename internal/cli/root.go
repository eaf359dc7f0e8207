package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd assembles portalctl's command tree around env.
func NewRootCmd(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Rental portal from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(env.In)
	root.SetOut(env.Out)

	root.AddCommand(
		LoginCmd(env),
		SignUpCmd(env),
		LogoutCmd(env),
		WhoAmICmd(env),
		TicketsCmd(env),
		ContractsCmd(env),
		PaymentsCmd(env),
		PropertiesCmd(env),
		ReportCmd(env),
	)
	return root
}
