package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/clock"
	"github.com/example/mkc/internal/core/commandsource"
	"github.com/example/mkc/internal/core/permission"
	"github.com/example/mkc/internal/ctxutil"
	"github.com/example/mkc/internal/ports/primary"
	"github.com/example/mkc/internal/ports/secondary"
)

// CommandServiceDeps holds the collaborators of the CommandService.
type CommandServiceDeps struct {
	Repo        secondary.CommandSourceRepository
	Security    secondary.SecurityContext
	Permissions *permission.Table
	Handlers    map[string]primary.CommandSourceHandler // keyed by resource name
	Clock       clock.Clock
	Logger      *slog.Logger
}

// CommandServiceImpl implements the CommandService interface.
type CommandServiceImpl struct {
	repo        secondary.CommandSourceRepository
	security    secondary.SecurityContext
	permissions *permission.Table
	handlers    map[string]primary.CommandSourceHandler
	clock       clock.Clock
	logger      *slog.Logger
}

var _ primary.CommandService = (*CommandServiceImpl)(nil)

// NewCommandService creates a new CommandService with injected dependencies.
func NewCommandService(deps CommandServiceDeps) *CommandServiceImpl {
	handlers := make(map[string]primary.CommandSourceHandler, len(deps.Handlers))
	for name, h := range deps.Handlers {
		handlers[normalizeResource(name)] = h
	}
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CommandServiceImpl{
		repo:        deps.Repo,
		security:    deps.Security,
		permissions: deps.Permissions,
		handlers:    handlers,
		clock:       c,
		logger:      logger,
	}
}

// Submit creates a command source for the request and runs the maker path.
//
// The source is reserved under its submission key before anything is
// written, stamped as checked by the maker so no checker can take it while
// the maker path runs. It is removed again when the maker path fails, and
// saved in its final form, committed or pending, when it succeeds.
func (s *CommandServiceImpl) Submit(ctx context.Context, req primary.SubmitCommandRequest) (*primary.SubmitCommandResponse, error) {
	action, err := commandsource.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}
	resource := normalizeResource(req.Resource)
	handler, err := s.handler(resource)
	if err != nil {
		return nil, err
	}

	maker, err := s.security.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	rule, err := s.permissions.Rule(resource, action, permission.PathMaker)
	if err != nil {
		return nil, err
	}
	if err := maker.RequirePermission(rule.Required, rule.Allowed); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(req.SubmissionKey)
	if key == "" {
		key = uuid.NewString()
	}
	if err := s.ensureNewSubmission(ctx, key); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	cs, err := commandsource.New(commandsource.Submission{
		ResourceName:  resource,
		ResourceID:    req.ResourceID,
		Action:        action,
		JSON:          req.JSON,
		MadeBy:        maker.ID,
		MadeOn:        now,
		SubmissionKey: key,
	})
	if err != nil {
		return nil, err
	}

	reservation := toCommandSourceRecord(cs)
	reservation.Checked = true
	reservation.CheckedBy = &maker.ID
	reservation.CheckedOn = formatDate(now)
	id, err := s.repo.Create(ctx, reservation)
	if err != nil {
		return nil, fmt.Errorf("failed to save command: %w", err)
	}
	if cs, err = cs.WithID(id); err != nil {
		return nil, err
	}

	result, err := handler.HandleCommandWithSupportForRollback(ctxutil.WithSubmissionKey(ctx, key), cs)
	if err != nil {
		s.dropReservation(ctx, id)
		return nil, err
	}

	if err := s.repo.Update(ctx, toCommandSourceRecord(result)); err != nil {
		if !result.Checked() {
			// nothing was written; a pending command that cannot be saved is dropped
			s.dropReservation(ctx, id)
		} else {
			s.logger.ErrorContext(ctx, "committed command kept in reserved form",
				"command_id", id, "resource", resource, "error", err)
		}
		return nil, fmt.Errorf("failed to save command %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "command submitted",
		"command_id", id, "resource", resource, "action", action.String(), "checked", result.Checked())
	return &primary.SubmitCommandResponse{
		Command: toCommand(result),
		Pending: !result.Checked(),
	}, nil
}

// Approve runs the checker path on a stored command.
//
// The command is claimed before the write runs, so a command is approved at
// most once even across processes. A failed checker path releases the claim.
// When the write commits but the result cannot be saved, the claim stays and
// the command is never written again.
func (s *CommandServiceImpl) Approve(ctx context.Context, commandID int64) (*primary.Command, error) {
	cs, err := s.load(ctx, commandID)
	if err != nil {
		return nil, err
	}
	handler, err := s.handler(cs.ResourceName())
	if err != nil {
		return nil, err
	}
	checker, err := s.security.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Claim(ctx, commandID, checker.ID, formatDate(s.clock.Now())); err != nil {
		return nil, err
	}

	result, err := handler.HandleCommandForCheckerApproval(ctxutil.WithSubmissionKey(ctx, cs.SubmissionKey()), cs)
	if err != nil {
		if rerr := s.repo.Release(ctx, commandID); rerr != nil {
			s.logger.ErrorContext(ctx, "failed to release command claim",
				"command_id", commandID, "error", rerr)
		}
		return nil, err
	}
	if err := s.repo.Update(ctx, toCommandSourceRecord(result)); err != nil {
		s.logger.ErrorContext(ctx, "approved command kept in claimed form",
			"command_id", commandID, "error", err)
		return nil, fmt.Errorf("failed to save approval: %w", err)
	}
	return toCommand(result), nil
}

// GetCommand retrieves a command by ID.
func (s *CommandServiceImpl) GetCommand(ctx context.Context, commandID int64) (*primary.Command, error) {
	cs, err := s.load(ctx, commandID)
	if err != nil {
		return nil, err
	}
	return toCommand(cs), nil
}

// ListCommands lists commands with optional filters.
func (s *CommandServiceImpl) ListCommands(ctx context.Context, filters primary.CommandFilters) ([]*primary.Command, error) {
	records, err := s.repo.List(ctx, secondary.CommandSourceFilters{
		ResourceName: normalizeResource(filters.Resource),
		Checked:      filters.Checked,
		Limit:        filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}

	commands := make([]*primary.Command, 0, len(records))
	for _, r := range records {
		cs, err := fromCommandSourceRecord(r)
		if err != nil {
			return nil, err
		}
		commands = append(commands, toCommand(cs))
	}
	return commands, nil
}

func (s *CommandServiceImpl) handler(resource string) (primary.CommandSourceHandler, error) {
	h, ok := s.handlers[normalizeResource(resource)]
	if !ok {
		return nil, apperr.New(apperr.CodeUnsupported, "no handler for resource %q", resource)
	}
	return h, nil
}

func (s *CommandServiceImpl) dropReservation(ctx context.Context, id int64) {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to drop command reservation", "command_id", id, "error", err)
	}
}

func (s *CommandServiceImpl) ensureNewSubmission(ctx context.Context, key string) error {
	existing, err := s.repo.GetBySubmissionKey(ctx, key)
	switch {
	case err == nil:
		return apperr.New(apperr.CodeConflict, "submission %s was already received as command %d", key, existing.ID)
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check submission key: %w", err)
	}
}

func (s *CommandServiceImpl) load(ctx context.Context, commandID int64) (commandsource.CommandSource, error) {
	record, err := s.repo.GetByID(ctx, commandID)
	if err != nil {
		return commandsource.CommandSource{}, err
	}
	return fromCommandSourceRecord(record)
}

func normalizeResource(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Helper functions

func toCommandSourceRecord(cs commandsource.CommandSource) *secondary.CommandSourceRecord {
	st := cs.State()
	rec := &secondary.CommandSourceRecord{
		ID:            st.ID,
		ResourceName:  st.ResourceName,
		ResourceID:    st.ResourceID,
		Action:        st.Action.String(),
		JSON:          st.JSON,
		Checked:       st.Checked,
		CheckedBy:     st.CheckedBy,
		MadeBy:        st.MadeBy,
		MadeOn:        formatDate(st.MadeOn),
		SubmissionKey: st.SubmissionKey,
	}
	if st.CheckedOn != nil {
		rec.CheckedOn = formatDate(*st.CheckedOn)
	}
	return rec
}

func fromCommandSourceRecord(r *secondary.CommandSourceRecord) (commandsource.CommandSource, error) {
	action, err := commandsource.ParseAction(r.Action)
	if err != nil {
		return commandsource.CommandSource{}, fmt.Errorf("command %d: %w", r.ID, err)
	}
	madeOn, err := parseDate(r.MadeOn)
	if err != nil {
		return commandsource.CommandSource{}, fmt.Errorf("command %d made on: %w", r.ID, err)
	}
	st := commandsource.State{
		ID:            r.ID,
		ResourceName:  r.ResourceName,
		ResourceID:    r.ResourceID,
		Action:        action,
		JSON:          r.JSON,
		Checked:       r.Checked,
		CheckedBy:     r.CheckedBy,
		MadeBy:        r.MadeBy,
		MadeOn:        madeOn,
		SubmissionKey: r.SubmissionKey,
	}
	if r.CheckedOn != "" {
		on, err := parseDate(r.CheckedOn)
		if err != nil {
			return commandsource.CommandSource{}, fmt.Errorf("command %d checked on: %w", r.ID, err)
		}
		st.CheckedOn = &on
	}
	return commandsource.Restore(st)
}

func toCommand(cs commandsource.CommandSource) *primary.Command {
	c := &primary.Command{
		ID:            cs.ID(),
		Resource:      cs.ResourceName(),
		ResourceID:    cs.ResourceID(),
		Action:        cs.Action().String(),
		JSON:          cs.JSON(),
		Checked:       cs.Checked(),
		CheckedBy:     cs.CheckedBy(),
		MadeBy:        cs.MadeBy(),
		MadeOn:        formatDate(cs.MadeOn()),
		SubmissionKey: cs.SubmissionKey(),
	}
	if on := cs.CheckedOn(); on != nil {
		c.CheckedOn = formatDate(*on)
	}
	return c
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
