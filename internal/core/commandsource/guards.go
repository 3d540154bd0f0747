package commandsource

import (
	"fmt"
	"strings"

	"github.com/example/mkc/internal/apperr"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Code    apperr.Code
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return &apperr.Error{Code: r.Code, Message: r.Reason}
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(code apperr.Code, reason string) GuardResult {
	return GuardResult{Allowed: false, Code: code, Reason: reason}
}

// MarkCheckedContext provides context for the checked stamp guard.
type MarkCheckedContext struct {
	CommandID int64
	Checked   bool
	ActorID   int64
}

// ApproveContext provides context for the checker approval guard.
type ApproveContext struct {
	CommandID int64
	Checked   bool
	MakerID   int64
	CheckerID int64
}

// CanSubmit evaluates whether a maker submission forms a valid command.
// Rules:
// - Resource name and payload must be present
// - Action must be create, update or delete
// - Create must not name a resource id; update and delete must
func CanSubmit(s Submission) GuardResult {
	if strings.TrimSpace(s.ResourceName) == "" {
		return deny(apperr.CodeValidation, "resource name is required")
	}
	if strings.TrimSpace(s.JSON) == "" {
		return deny(apperr.CodeValidation, "command payload is required")
	}

	switch s.Action {
	case ActionCreate:
		if s.ResourceID != nil {
			return deny(apperr.CodeValidation, "create commands must not carry a resource id")
		}
	case ActionUpdate, ActionDelete:
		if s.ResourceID == nil || *s.ResourceID <= 0 {
			return deny(apperr.CodeValidation, fmt.Sprintf("%s commands require a positive resource id", strings.ToLower(s.Action.String())))
		}
	default:
		return deny(apperr.CodeUnsupported, fmt.Sprintf("unsupported action %s", s.Action))
	}

	return allow()
}

// CanMarkChecked evaluates whether the checked stamp may be applied.
// Rules:
// - Command must not already be checked
// - Checker must be a known actor
func CanMarkChecked(ctx MarkCheckedContext) GuardResult {
	if ctx.Checked {
		return deny(apperr.CodeConflict, alreadyChecked(ctx.CommandID))
	}
	if ctx.ActorID <= 0 {
		return deny(apperr.CodeAuthentication, "a checked stamp requires an authenticated actor")
	}
	return allow()
}

// CanHandleOnMakerPath evaluates whether a command can run through the maker path.
// Rules:
// - Command must not already be checked (re-submitting applied work is a duplicate)
func CanHandleOnMakerPath(c CommandSource) GuardResult {
	if c.checked {
		return deny(apperr.CodeConflict, alreadyChecked(c.id))
	}
	return allow()
}

// CanApprove evaluates whether a checker may approve a pending command.
// Rules:
// - Command must not already be checked (approval never writes twice)
// - Checker must not be the maker of the command
func CanApprove(ctx ApproveContext) GuardResult {
	if ctx.Checked {
		return deny(apperr.CodeConflict, alreadyChecked(ctx.CommandID))
	}
	if ctx.MakerID != 0 && ctx.MakerID == ctx.CheckerID {
		return deny(apperr.CodeAuthorization, "the maker of a command cannot approve it")
	}
	return allow()
}

func alreadyChecked(id int64) string {
	if id == 0 {
		return "command is already checked"
	}
	return fmt.Sprintf("command %d is already checked", id)
}
