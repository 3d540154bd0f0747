package primary

import (
	"context"

	"github.com/example/mkc/internal/core/commandsource"
)

// CommandSourceHandler processes command sources of one entity type.
type CommandSourceHandler interface {
	// HandleCommandWithSupportForRollback runs the maker path. A write the
	// policy defers is not an error: the returned source is left unchecked.
	HandleCommandWithSupportForRollback(ctx context.Context, cs commandsource.CommandSource) (commandsource.CommandSource, error)

	// HandleCommandForCheckerApproval runs the checker path. Every failure,
	// a deferred write included, is returned as an error.
	HandleCommandForCheckerApproval(ctx context.Context, cs commandsource.CommandSource) (commandsource.CommandSource, error)
}

// CommandService defines the primary port for submitting and approving commands.
type CommandService interface {
	// Submit checks the maker permission, runs the maker path and persists
	// the resulting command source.
	Submit(ctx context.Context, req SubmitCommandRequest) (*SubmitCommandResponse, error)

	// Approve runs the checker path on a pending command and persists the result.
	Approve(ctx context.Context, commandID int64) (*Command, error)

	// GetCommand retrieves a command by ID.
	GetCommand(ctx context.Context, commandID int64) (*Command, error)

	// ListCommands lists commands with optional filters.
	ListCommands(ctx context.Context, filters CommandFilters) ([]*Command, error)
}

// SubmitCommandRequest contains parameters for submitting a command.
type SubmitCommandRequest struct {
	Resource      string
	ResourceID    *int64 // required for update and delete
	Action        string // create, update or delete
	JSON          string
	SubmissionKey string // generated when empty
}

// SubmitCommandResponse contains the result of a submission.
type SubmitCommandResponse struct {
	Command *Command
	// Pending is true when the write was deferred to a checker.
	Pending bool
}

// Command is the public view of a command source.
type Command struct {
	ID            int64
	Resource      string
	ResourceID    *int64
	Action        string
	JSON          string
	Checked       bool
	CheckedBy     *int64
	CheckedOn     string
	MadeBy        int64
	MadeOn        string
	SubmissionKey string
}

// CommandFilters contains filter options for listing commands.
type CommandFilters struct {
	Resource string
	Checked  *bool
	Limit    int
}
