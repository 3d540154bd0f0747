package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/clock"
	"github.com/example/mkc/internal/core/command"
	"github.com/example/mkc/internal/core/commandsource"
	"github.com/example/mkc/internal/core/permission"
	"github.com/example/mkc/internal/ctxutil"
	"github.com/example/mkc/internal/ports/primary"
	"github.com/example/mkc/internal/ports/secondary"
)

// CommandHandlerDeps holds the collaborators of a CommandSourceHandler.
type CommandHandlerDeps struct {
	Security     secondary.SecurityContext
	Deserializer secondary.CommandDeserializer
	Changes      secondary.ChangeDetector
	Writer       secondary.WriteService
	Permissions  *permission.Table
	Clock        clock.Clock
	Logger       *slog.Logger
}

// CommandHandlerImpl implements primary.CommandSourceHandler for one entity type.
type CommandHandlerImpl struct {
	resource     string
	security     secondary.SecurityContext
	deserializer secondary.CommandDeserializer
	changes      secondary.ChangeDetector
	writer       secondary.WriteService
	permissions  *permission.Table
	clock        clock.Clock
	logger       *slog.Logger
}

var _ primary.CommandSourceHandler = (*CommandHandlerImpl)(nil)

// NewCommandHandler creates the handler of resource.
func NewCommandHandler(resource string, deps CommandHandlerDeps) *CommandHandlerImpl {
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CommandHandlerImpl{
		resource:     resource,
		security:     deps.Security,
		deserializer: deps.Deserializer,
		changes:      deps.Changes,
		writer:       deps.Writer,
		permissions:  deps.Permissions,
		clock:        c,
		logger:       logger.With("resource", resource),
	}
}

// HandleCommandWithSupportForRollback runs the maker path.
//
// The maker permission is checked by the caller before the source exists.
// The submitted payload is replaced by its canonical form, and updates are
// first narrowed to the fields that actually change. A deferred write returns
// the source unchecked with the staged payload.
func (h *CommandHandlerImpl) HandleCommandWithSupportForRollback(ctx context.Context, cs commandsource.CommandSource) (commandsource.CommandSource, error) {
	if r := commandsource.CanHandleOnMakerPath(cs); !r.Allowed {
		return cs, r.Error()
	}
	maker, err := h.security.CurrentActor(ctx)
	if err != nil {
		return cs, err
	}

	var outcome secondary.WriteOutcome
	switch action := cs.Action(); action {
	case commandsource.ActionCreate:
		var cmd *command.Command
		if cs, cmd, err = h.stage(cs, cs.JSON()); err != nil {
			return cs, err
		}
		if outcome, err = h.writer.Create(ctx, cmd); err != nil {
			return cs, err
		}
	case commandsource.ActionUpdate:
		if cs, outcome, err = h.makerUpdate(ctx, cs); err != nil {
			return cs, err
		}
	case commandsource.ActionDelete:
		var cmd *command.Command
		if cs, cmd, err = h.stage(cs, cs.JSON()); err != nil {
			return cs, err
		}
		if outcome, err = h.writer.Delete(ctx, cmd); err != nil {
			return cs, err
		}
	default:
		return cs, apperr.New(apperr.CodeUnsupported, "unsupported action %s", action)
	}

	switch o := outcome.(type) {
	case secondary.Committed:
		checked, err := h.stamp(cs, maker.ID, o.ResourceID)
		if err != nil {
			return cs, err
		}
		h.logger.InfoContext(ctx, "command committed",
			"action", cs.Action().String(), "resource_id", o.ResourceID, "maker", maker.Username)
		return checked, nil
	case secondary.Deferred:
		h.logger.InfoContext(ctx, "command awaiting checker",
			"action", cs.Action().String(), "maker", maker.Username)
		return cs, nil
	default:
		return cs, fmt.Errorf("unexpected write outcome %T", outcome)
	}
}

func (h *CommandHandlerImpl) makerUpdate(ctx context.Context, cs commandsource.CommandSource) (commandsource.CommandSource, secondary.WriteOutcome, error) {
	resourceID := cs.ResourceID()
	cmd, err := h.deserializer.Deserialize(h.resource, resourceID, cs.JSON(), false)
	if err != nil {
		return cs, nil, err
	}
	if err := command.RequireParameters(cmd); err != nil {
		return cs, nil, err
	}
	proposed, err := cmd.JSON()
	if err != nil {
		return cs, nil, err
	}

	delta, err := h.changes.DetectChangesOnUpdate(ctx, h.resource, *resourceID, proposed)
	if err != nil {
		return cs, nil, err
	}
	cs, cmd, err = h.stage(cs, delta)
	if err != nil {
		return cs, nil, err
	}
	outcome, err := h.writer.Update(ctx, cmd)
	return cs, outcome, err
}

// stage parses payload leniently and replaces the payload of cs with the
// canonical JSON of the result, the form the checker path parses strictly.
func (h *CommandHandlerImpl) stage(cs commandsource.CommandSource, payload string) (commandsource.CommandSource, *command.Command, error) {
	cmd, err := h.deserializer.Deserialize(h.resource, cs.ResourceID(), payload, false)
	if err != nil {
		return cs, nil, err
	}
	canonical, err := cmd.JSON()
	if err != nil {
		return cs, nil, err
	}
	staged, err := cs.WithPayload(canonical)
	if err != nil {
		return cs, nil, err
	}
	return staged, cmd, nil
}

// HandleCommandForCheckerApproval runs the checker path.
//
// The checker must hold the permission the table requires for the action
// before anything is written. The staged payload is applied as is, parsed
// strictly. A deferred write is an error here.
func (h *CommandHandlerImpl) HandleCommandForCheckerApproval(ctx context.Context, cs commandsource.CommandSource) (commandsource.CommandSource, error) {
	checker, err := h.security.CurrentActor(ctx)
	if err != nil {
		return cs, err
	}
	if r := commandsource.CanApprove(commandsource.ApproveContext{
		CommandID: cs.ID(),
		Checked:   cs.Checked(),
		MakerID:   cs.MadeBy(),
		CheckerID: checker.ID,
	}); !r.Allowed {
		return cs, r.Error()
	}

	action := cs.Action()
	rule, err := h.permissions.Rule(h.resource, action, permission.PathChecker)
	if err != nil {
		return cs, err
	}
	if err := checker.RequirePermission(rule.Required, rule.Allowed); err != nil {
		h.logger.WarnContext(ctx, "checker denied",
			"action", action.String(), "checker", checker.Username, "required", rule.Required)
		return cs, err
	}

	cmd, err := h.deserializer.Deserialize(h.resource, cs.ResourceID(), cs.JSON(), true)
	if err != nil {
		return cs, err
	}

	ctx = ctxutil.WithCheckerApproval(ctx)
	var outcome secondary.WriteOutcome
	switch action {
	case commandsource.ActionCreate:
		outcome, err = h.writer.Create(ctx, cmd)
	case commandsource.ActionUpdate:
		outcome, err = h.writer.Update(ctx, cmd)
	case commandsource.ActionDelete:
		outcome, err = h.writer.Delete(ctx, cmd)
	default:
		return cs, apperr.New(apperr.CodeUnsupported, "unsupported action %s", action)
	}
	if err != nil {
		return cs, err
	}

	switch o := outcome.(type) {
	case secondary.Committed:
		checked, err := h.stamp(cs, checker.ID, o.ResourceID)
		if err != nil {
			return cs, err
		}
		h.logger.InfoContext(ctx, "command approved",
			"command_id", cs.ID(), "action", action.String(), "resource_id", o.ResourceID, "checker", checker.Username)
		return checked, nil
	case secondary.Deferred:
		return cs, apperr.New(apperr.CodeRollback, "write of %s %s was not committed on approval", action, h.resource)
	default:
		return cs, fmt.Errorf("unexpected write outcome %T", outcome)
	}
}

// stamp records the created resource id and marks cs checked today.
func (h *CommandHandlerImpl) stamp(cs commandsource.CommandSource, actorID, resourceID int64) (commandsource.CommandSource, error) {
	var err error
	if !cs.HasResourceID() {
		if cs, err = cs.WithResourceID(resourceID); err != nil {
			return cs, err
		}
	}
	return cs.MarkChecked(actorID, h.clock.Now())
}
