// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
)

// CommandSourceRepository defines the secondary port for command source persistence.
type CommandSourceRepository interface {
	// Create persists a new command source and returns its assigned ID.
	Create(ctx context.Context, record *CommandSourceRecord) (int64, error)

	// GetByID retrieves a command source by its ID.
	GetByID(ctx context.Context, id int64) (*CommandSourceRecord, error)

	// GetBySubmissionKey retrieves the command source submitted under key.
	// Returns a not_found error when there is none.
	GetBySubmissionKey(ctx context.Context, key string) (*CommandSourceRecord, error)

	// Update replaces the mutable columns of an existing command source.
	Update(ctx context.Context, record *CommandSourceRecord) error

	// Claim atomically stamps a pending command source as checked by
	// checkerID on checkedOn (yyyy-mm-dd). Returns a conflict error when the
	// command is already checked, so at most one caller runs its write.
	Claim(ctx context.Context, id, checkerID int64, checkedOn string) error

	// Release clears the checked stamp of a command whose claimed write failed.
	Release(ctx context.Context, id int64) error

	// Delete removes a command source reserved for a submission that failed.
	Delete(ctx context.Context, id int64) error

	// List retrieves command sources matching the given filters, newest first.
	List(ctx context.Context, filters CommandSourceFilters) ([]*CommandSourceRecord, error)
}

// CommandSourceRecord represents a command source as stored in persistence.
type CommandSourceRecord struct {
	ID            int64
	ResourceName  string
	ResourceID    *int64 // unset until a create commits
	Action        string // CREATE, UPDATE or DELETE
	JSON          string
	Checked       bool
	CheckedBy     *int64
	CheckedOn     string // yyyy-mm-dd, empty when unchecked
	MadeBy        int64
	MadeOn        string
	SubmissionKey string
}

// CommandSourceFilters contains filter options for querying command sources.
type CommandSourceFilters struct {
	ResourceName string
	Checked      *bool
	Limit        int
}

// UserRepository defines the secondary port for application users.
type UserRepository interface {
	// Create persists a new user and returns its assigned ID.
	Create(ctx context.Context, user *UserRecord) (int64, error)

	// GetByID retrieves a user and its permissions by ID.
	GetByID(ctx context.Context, id int64) (*UserRecord, error)

	// GetByUsername retrieves a user and its permissions by username.
	GetByUsername(ctx context.Context, username string) (*UserRecord, error)

	// List retrieves all users ordered by username.
	List(ctx context.Context) ([]*UserRecord, error)

	// Grant adds permissions to a user. Already held permissions are ignored.
	Grant(ctx context.Context, userID int64, permissions []string) error

	// Revoke removes permissions from a user.
	Revoke(ctx context.Context, userID int64, permissions []string) error
}

// UserRecord represents an application user as stored in persistence.
type UserRecord struct {
	ID          int64
	Username    string
	DisplayName string
	Permissions []string
	CreatedAt   string
}

// PolicyRepository defines the secondary port for maker-checker settings.
// Settings are keyed by maker permission code, e.g. DELETE_CLIENT.
type PolicyRepository interface {
	// RequiresChecker reports whether commands guarded by code need checker approval.
	// Codes without a setting do not.
	RequiresChecker(ctx context.Context, code string) (bool, error)

	// SetMakerChecker enables or disables checker approval for code.
	SetMakerChecker(ctx context.Context, code string, enabled bool) error

	// List retrieves every stored setting ordered by code.
	List(ctx context.Context) ([]*MakerCheckerRecord, error)
}

// MakerCheckerRecord is one maker-checker setting.
type MakerCheckerRecord struct {
	Code      string
	Enabled   bool
	UpdatedAt string
}

// DocumentStore defines the secondary port for entity documents.
// Every entity instance is stored as one JSON document per resource.
type DocumentStore interface {
	// Begin starts a write transaction.
	Begin(ctx context.Context) (DocumentTx, error)

	// Get retrieves a committed document. Returns a not_found error when the
	// resource id does not resolve.
	Get(ctx context.Context, resource string, id int64) ([]byte, error)
}

// DocumentTx is a write transaction over entity documents. History for each
// write is buffered and only persisted by Commit.
type DocumentTx interface {
	// Get retrieves a document as seen by the transaction.
	Get(ctx context.Context, resource string, id int64) ([]byte, error)

	// Insert stores a new document and returns its ID.
	Insert(ctx context.Context, resource string, doc []byte) (int64, error)

	// Replace overwrites an existing document.
	Replace(ctx context.Context, resource string, id int64, doc []byte) error

	// Delete removes a document.
	Delete(ctx context.Context, resource string, id int64) error

	// Commit applies the writes and their history.
	Commit() error

	// Rollback discards the writes and their history. Safe to call after Commit.
	Rollback() error
}
