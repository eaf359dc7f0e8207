package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/tickets"
)

// NewCostPrompt asks for a ticket's total cost on the terminal.
// End of input cancels; an empty answer is passed on and rejected as missing.
func NewCostPrompt(reader *bufio.Reader, out io.Writer) tickets.CostPrompt {
	return tickets.CostPromptFunc(func(ctx context.Context, ticket domain.Ticket) (string, error) {
		fmt.Fprintf(out, "Total cost for ticket #%d (%s): ", ticket.ID, ticket.Description)
		line, err := readLine(ctx, reader)
		if err != nil {
			return "", tickets.ErrPromptCancelled
		}
		return line, nil
	})
}

func readLine(ctx context.Context, reader *bufio.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
