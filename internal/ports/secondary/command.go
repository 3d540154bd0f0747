package secondary

import (
	"context"

	"github.com/example/mkc/internal/core/command"
	"github.com/example/mkc/internal/core/permission"
)

// SecurityContext resolves the authenticated actor of a call.
type SecurityContext interface {
	// CurrentActor returns the actor bound to ctx, or an authentication error.
	CurrentActor(ctx context.Context) (*permission.Actor, error)
}

// CommandDeserializer turns raw JSON into a typed command. Strict mode
// rejects unknown parameters and non-native value types.
type CommandDeserializer interface {
	Deserialize(resource string, resourceID *int64, json string, strict bool) (*command.Command, error)
}

// ChangeDetector reduces an update payload to the fields that differ from
// the persisted state of the entity.
type ChangeDetector interface {
	// DetectChangesOnUpdate returns the minimal delta JSON. Returns a
	// not_found error when resourceID does not resolve.
	DetectChangesOnUpdate(ctx context.Context, resource string, resourceID int64, proposedJSON string) (string, error)
}

// WriteService executes the domain mutation of one entity type.
//
// A write either commits or is deferred: when policy requires checker
// approval and the call is not a checker approval, the mutation is rolled
// back and Deferred is returned. Failures are returned as errors.
type WriteService interface {
	Create(ctx context.Context, cmd *command.Command) (WriteOutcome, error)
	Update(ctx context.Context, cmd *command.Command) (WriteOutcome, error)
	Delete(ctx context.Context, cmd *command.Command) (WriteOutcome, error)
}

// WriteOutcome is the result of a write: Committed or Deferred.
type WriteOutcome interface {
	writeOutcome()
}

// Committed reports a durably applied write.
type Committed struct {
	ResourceID int64
}

// Deferred reports a write that was rolled back pending checker approval.
type Deferred struct{}

func (Committed) writeOutcome() {}
func (Deferred) writeOutcome()  {}
