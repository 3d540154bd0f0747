// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/example/mkc/internal/ports/primary"
)

var (
	okMark      = color.New(color.FgGreen).Sprint("✓")
	pendingMark = color.New(color.FgYellow).Sprint("…")
)

// CommandAdapter is a thin adapter that translates CLI operations to CommandService calls.
// It depends only on the CommandService interface, enabling easy testing with mocks.
type CommandAdapter struct {
	service primary.CommandService
	out     io.Writer
}

// NewCommandAdapter creates a new CommandAdapter with the given service.
func NewCommandAdapter(service primary.CommandService, out io.Writer) *CommandAdapter {
	return &CommandAdapter{
		service: service,
		out:     out,
	}
}

// Submit submits a command on the maker path.
func (a *CommandAdapter) Submit(ctx context.Context, req primary.SubmitCommandRequest) (*primary.SubmitCommandResponse, error) {
	resp, err := a.service.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	c := resp.Command
	if resp.Pending {
		fmt.Fprintf(a.out, "%s Command %d (%s %s) awaits checker approval\n", pendingMark, c.ID, c.Action, c.Resource)
	} else {
		fmt.Fprintf(a.out, "%s Command %d applied: %s %s %s\n", okMark, c.ID, c.Action, c.Resource, resourceRef(c.ResourceID))
	}
	fmt.Fprintf(a.out, "  submission key: %s\n", c.SubmissionKey)
	return resp, nil
}

// Approve approves a pending command on the checker path.
func (a *CommandAdapter) Approve(ctx context.Context, commandID int64) error {
	c, err := a.service.Approve(ctx, commandID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s Command %d approved: %s %s %s\n", okMark, c.ID, c.Action, c.Resource, resourceRef(c.ResourceID))
	return nil
}

// Show displays details for a single command.
func (a *CommandAdapter) Show(ctx context.Context, commandID int64) (*primary.Command, error) {
	c, err := a.service.GetCommand(ctx, commandID)
	if err != nil {
		return nil, fmt.Errorf("failed to get command: %w", err)
	}

	fmt.Fprintf(a.out, "\nCommand:  %d\n", c.ID)
	fmt.Fprintf(a.out, "Action:   %s %s %s\n", c.Action, c.Resource, resourceRef(c.ResourceID))
	fmt.Fprintf(a.out, "Status:   %s\n", status(c.Checked))
	fmt.Fprintf(a.out, "Made:     user %d on %s\n", c.MadeBy, c.MadeOn)
	if c.Checked && c.CheckedBy != nil {
		fmt.Fprintf(a.out, "Checked:  user %d on %s\n", *c.CheckedBy, c.CheckedOn)
	}
	fmt.Fprintf(a.out, "Key:      %s\n", c.SubmissionKey)
	fmt.Fprintf(a.out, "Payload:  %s\n", c.JSON)
	fmt.Fprintln(a.out)

	return c, nil
}

// List lists commands with optional filters.
func (a *CommandAdapter) List(ctx context.Context, filters primary.CommandFilters) error {
	commands, err := a.service.ListCommands(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list commands: %w", err)
	}

	if len(commands) == 0 {
		fmt.Fprintln(a.out, "No commands found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-6s %-8s %-20s %-8s %-10s %s\n", "ID", "ACTION", "RESOURCE", "ENTITY", "MADE ON", "STATUS")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, c := range commands {
		fmt.Fprintf(a.out, "%-6d %-8s %-20s %-8s %-10s %s\n",
			c.ID, c.Action, c.Resource, resourceRef(c.ResourceID), c.MadeOn, status(c.Checked))
	}
	fmt.Fprintln(a.out)

	return nil
}

func resourceRef(id *int64) string {
	if id == nil {
		return "-"
	}
	return "#" + strconv.FormatInt(*id, 10)
}

func status(checked bool) string {
	if checked {
		return color.New(color.FgGreen).Sprint("checked")
	}
	return color.New(color.FgYellow).Sprint("pending")
}
