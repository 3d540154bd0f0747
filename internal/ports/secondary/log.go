package secondary

import "context"

// HistoryReader defines the interface for reading entity history.
// Entries are written by DocumentTx on commit; the operator and submission
// key are taken from the context of the write.
type HistoryReader interface {
	// History returns the entries of one entity instance, oldest first.
	History(ctx context.Context, resource string, id int64) ([]*HistoryRecord, error)
}

// HistoryRecord is one committed write of an entity document.
type HistoryRecord struct {
	ID            int64
	Resource      string
	ResourceID    int64
	Operation     string // create, update or delete
	Before        string // empty on create
	After         string // empty on delete
	Operator      string
	SubmissionKey string
	CreatedAt     string
}
