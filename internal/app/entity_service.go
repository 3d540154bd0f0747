package app

import (
	"context"
	"fmt"

	"github.com/example/mkc/internal/core/command"
	"github.com/example/mkc/internal/ports/primary"
	"github.com/example/mkc/internal/ports/secondary"
)

// EntityServiceImpl implements the EntityService interface.
type EntityServiceImpl struct {
	registry *command.Registry
	store    secondary.DocumentStore
	history  secondary.HistoryReader
}

var _ primary.EntityService = (*EntityServiceImpl)(nil)

// NewEntityService creates a new EntityService with injected dependencies.
func NewEntityService(registry *command.Registry, store secondary.DocumentStore, history secondary.HistoryReader) *EntityServiceImpl {
	return &EntityServiceImpl{
		registry: registry,
		store:    store,
		history:  history,
	}
}

// GetEntity retrieves the committed document of an entity instance.
func (s *EntityServiceImpl) GetEntity(ctx context.Context, resource string, id int64) (*primary.Entity, error) {
	def, err := s.registry.Lookup(resource)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, def.Resource, id)
	if err != nil {
		return nil, err
	}
	return &primary.Entity{Resource: def.Resource, ID: id, JSON: string(doc)}, nil
}

// GetHistory lists the committed writes of an entity instance.
func (s *EntityServiceImpl) GetHistory(ctx context.Context, resource string, id int64) ([]*primary.HistoryEntry, error) {
	def, err := s.registry.Lookup(resource)
	if err != nil {
		return nil, err
	}
	records, err := s.history.History(ctx, def.Resource, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	entries := make([]*primary.HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.HistoryEntry{
			Operation:     r.Operation,
			Before:        r.Before,
			After:         r.After,
			Operator:      r.Operator,
			SubmissionKey: r.SubmissionKey,
			CreatedAt:     r.CreatedAt,
		}
	}
	return entries, nil
}
