package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/example/mkc/internal/core/command"
	"github.com/example/mkc/internal/core/commandsource"
	"github.com/example/mkc/internal/core/permission"
	"github.com/example/mkc/internal/ctxutil"
	"github.com/example/mkc/internal/ports/secondary"
)

// DocumentWriteServiceImpl implements secondary.WriteService for one entity
// type stored as JSON documents.
//
// Every write runs in its own transaction. After the mutation is applied the
// maker-checker policy of the maker permission code decides: when a checker
// is required and the context is not a checker approval, the transaction is
// rolled back and the outcome is Deferred.
type DocumentWriteServiceImpl struct {
	def    command.Definition
	store  secondary.DocumentStore
	policy secondary.PolicyRepository
	logger *slog.Logger
}

var _ secondary.WriteService = (*DocumentWriteServiceImpl)(nil)

// NewDocumentWriteService creates the write service of def.
func NewDocumentWriteService(def command.Definition, store secondary.DocumentStore, policy secondary.PolicyRepository, logger *slog.Logger) *DocumentWriteServiceImpl {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DocumentWriteServiceImpl{
		def:    def,
		store:  store,
		policy: policy,
		logger: logger.With("resource", def.Resource),
	}
}

// Create validates and inserts a new document.
func (s *DocumentWriteServiceImpl) Create(ctx context.Context, cmd *command.Command) (secondary.WriteOutcome, error) {
	if err := command.ValidateForCreate(s.def, cmd); err != nil {
		return nil, err
	}
	doc, err := cmd.JSON()
	if err != nil {
		return nil, err
	}
	return s.write(ctx, commandsource.ActionCreate, func(tx secondary.DocumentTx) (int64, error) {
		return tx.Insert(ctx, s.def.Resource, []byte(doc))
	})
}

// Update validates the command and merges its fields into the document.
// Null values are stored as null.
func (s *DocumentWriteServiceImpl) Update(ctx context.Context, cmd *command.Command) (secondary.WriteOutcome, error) {
	id, err := s.requireResourceID(cmd)
	if err != nil {
		return nil, err
	}
	if err := command.ValidateForUpdate(s.def, cmd); err != nil {
		return nil, err
	}
	return s.write(ctx, commandsource.ActionUpdate, func(tx secondary.DocumentTx) (int64, error) {
		current, err := tx.Get(ctx, s.def.Resource, id)
		if err != nil {
			return 0, err
		}
		merged, err := merge(current, cmd)
		if err != nil {
			return 0, err
		}
		if err := tx.Replace(ctx, s.def.Resource, id, merged); err != nil {
			return 0, err
		}
		return id, nil
	})
}

// Delete removes the document.
func (s *DocumentWriteServiceImpl) Delete(ctx context.Context, cmd *command.Command) (secondary.WriteOutcome, error) {
	id, err := s.requireResourceID(cmd)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, commandsource.ActionDelete, func(tx secondary.DocumentTx) (int64, error) {
		if err := tx.Delete(ctx, s.def.Resource, id); err != nil {
			return 0, err
		}
		return id, nil
	})
}

func (s *DocumentWriteServiceImpl) write(ctx context.Context, action commandsource.Action, apply func(secondary.DocumentTx) (int64, error)) (secondary.WriteOutcome, error) {
	code := permission.Code(action, s.def.Resource, permission.PathMaker)
	requiresChecker, err := s.policy.RequiresChecker(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to read maker-checker policy: %w", err)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin write: %w", err)
	}
	defer tx.Rollback()

	id, err := apply(tx)
	if err != nil {
		return nil, err
	}

	if requiresChecker && !ctxutil.IsCheckerApproval(ctx) {
		if err := tx.Rollback(); err != nil {
			return nil, fmt.Errorf("failed to roll back deferred write: %w", err)
		}
		s.logger.DebugContext(ctx, "write rolled back pending checker", "code", code)
		return secondary.Deferred{}, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit write: %w", err)
	}
	return secondary.Committed{ResourceID: id}, nil
}

func (s *DocumentWriteServiceImpl) requireResourceID(cmd *command.Command) (int64, error) {
	id := cmd.ResourceID()
	if id == nil || *id <= 0 {
		return 0, fmt.Errorf("%s command without resource id", s.def.Resource)
	}
	return *id, nil
}

// merge sets every field of cmd on doc.
func merge(doc []byte, cmd *command.Command) ([]byte, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("stored %s document is not valid JSON", cmd.Resource())
	}
	out := doc
	for _, v := range cmd.Values() {
		var err error
		out, err = sjson.SetRawBytes(out, command.EscapePath(v.Field.Name), []byte(v.Raw))
		if err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", v.Field.Name, err)
		}
	}
	return out, nil
}
