package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/tickets"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

func TicketsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Maintenance tickets of a property",
	}
	cmd.AddCommand(ticketsListCmd(env), ticketsAdvanceCmd(env), ticketsCreateCmd(env))
	return cmd
}

func ticketsListCmd(env *Env) *cobra.Command {
	var propertyID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a property's tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := env.CurrentUser(cmd.Context(), domain.UserTypeLandlord)
			if err != nil {
				return err
			}
			ctrl := env.TicketController(nil)
			defer ctrl.Close()

			list, err := ctrl.ListTickets(cmd.Context(), propertyID, user.ID)
			if err != nil {
				return err
			}
			printTickets(env.Out, list)
			return nil
		},
	}
	cmd.Flags().Int64Var(&propertyID, "property", 0, "property id")
	_ = cmd.MarkFlagRequired("property")
	return cmd
}

func ticketsAdvanceCmd(env *Env) *cobra.Command {
	var (
		propertyID int64
		ticketID   int64
		status     string
		cost       string
	)
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Move a ticket to its next status",
		Long:  "Move a ticket to its next status. Finishing asks for the total cost unless --cost is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, err := env.CurrentUser(ctx, domain.UserTypeLandlord)
			if err != nil {
				return err
			}
			ctrl := env.TicketController(NewCostPrompt(env.Lines(), env.Out))
			defer ctrl.Close()

			ticket, err := ctrl.Lookup(ctx, propertyID, user.ID, ticketID)
			if err != nil {
				return err
			}
			target, ok := ticket.Status.Next()
			if status != "" {
				if target, err = domain.ParseTicketStatus(status); err != nil {
					return apperrors.NewFieldError("status", err.Error())
				}
			} else if !ok {
				return apperrors.NewTransitionError(fmt.Sprintf("ticket %d is already finished", ticket.ID), nil)
			}

			amount := domain.UnsetCost()
			if cmd.Flags().Changed("cost") {
				if amount, err = tickets.ParseCost(cost); err != nil {
					return err
				}
			}

			if err := ctrl.AdvanceStatus(ctx, ticket, target, amount); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Ticket #%d is now %s.\n", ticket.ID, target)
			printTickets(env.Out, ctrl.Tickets())
			return nil
		},
	}
	cmd.Flags().Int64Var(&propertyID, "property", 0, "property id")
	cmd.Flags().Int64Var(&ticketID, "ticket", 0, "ticket id")
	cmd.Flags().StringVar(&status, "status", "", "target status, defaults to the next one")
	cmd.Flags().StringVar(&cost, "cost", "", "total cost when finishing, e.g. 450,00")
	_ = cmd.MarkFlagRequired("property")
	_ = cmd.MarkFlagRequired("ticket")
	return cmd
}

func ticketsCreateCmd(env *Env) *cobra.Command {
	var (
		propertyID  int64
		description string
		urgent      bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a ticket for the property you rent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := env.CurrentUser(cmd.Context(), domain.UserTypeTenant); err != nil {
				return err
			}
			ctrl := env.TicketController(nil)
			defer ctrl.Close()

			if err := ctrl.CreateTicket(cmd.Context(), propertyID, description, urgent); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "Ticket opened.")
			return nil
		},
	}
	cmd.Flags().Int64Var(&propertyID, "property", 0, "property id")
	cmd.Flags().StringVar(&description, "description", "", "what needs fixing")
	cmd.Flags().BoolVar(&urgent, "urgent", false, "mark the ticket urgent")
	_ = cmd.MarkFlagRequired("property")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func printTickets(out io.Writer, list []domain.Ticket) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No tickets.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tURGENT\tOPENED\tCOST\tDESCRIPTION")
	for _, t := range list {
		opened := "-"
		if !t.CreatedAt.IsZero() {
			opened = t.CreatedAt.Local().Format("2006-01-02")
		}
		cost := "-"
		if amount, ok := t.TotalCost.Amount(); ok {
			cost = fmt.Sprintf("%.2f", amount)
		}
		fmt.Fprintf(w, "%d\t%s\t%t\t%s\t%s\t%s\n", t.ID, t.Status, t.Urgent, opened, cost, t.Description)
	}
	_ = w.Flush()
}
