package primary

import "context"

// EntityService defines the primary port for reading entity documents.
type EntityService interface {
	// GetEntity retrieves the committed document of an entity instance.
	GetEntity(ctx context.Context, resource string, id int64) (*Entity, error)

	// GetHistory lists the committed writes of an entity instance.
	GetHistory(ctx context.Context, resource string, id int64) ([]*HistoryEntry, error)
}

// Entity is a committed entity document.
type Entity struct {
	Resource string
	ID       int64
	JSON     string
}

// HistoryEntry is one committed write of an entity.
type HistoryEntry struct {
	Operation     string
	Before        string
	After         string
	Operator      string
	SubmissionKey string
	CreatedAt     string
}
