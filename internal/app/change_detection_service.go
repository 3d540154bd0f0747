package app

import (
	"context"
	"fmt"

	"github.com/example/mkc/internal/core/changes"
	"github.com/example/mkc/internal/core/command"
	"github.com/example/mkc/internal/ports/secondary"
)

// ChangeDetectionServiceImpl implements secondary.ChangeDetector over the
// document store.
type ChangeDetectionServiceImpl struct {
	registry *command.Registry
	store    secondary.DocumentStore
}

var _ secondary.ChangeDetector = (*ChangeDetectionServiceImpl)(nil)

// NewChangeDetectionService creates a new ChangeDetectionService with injected dependencies.
func NewChangeDetectionService(registry *command.Registry, store secondary.DocumentStore) *ChangeDetectionServiceImpl {
	return &ChangeDetectionServiceImpl{
		registry: registry,
		store:    store,
	}
}

// DetectChangesOnUpdate loads the committed document and returns the fields
// of proposedJSON that differ from it.
func (s *ChangeDetectionServiceImpl) DetectChangesOnUpdate(ctx context.Context, resource string, resourceID int64, proposedJSON string) (string, error) {
	def, err := s.registry.Lookup(resource)
	if err != nil {
		return "", err
	}
	current, err := s.store.Get(ctx, def.Resource, resourceID)
	if err != nil {
		return "", err
	}
	delta, err := changes.Detect(def, current, []byte(proposedJSON))
	if err != nil {
		return "", fmt.Errorf("failed to detect changes: %w", err)
	}
	return string(delta), nil
}
