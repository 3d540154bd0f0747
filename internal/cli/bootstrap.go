// Package cli provides CLI commands for the mkc application.
package cli

import (
	"context"

	"github.com/example/mkc/internal/config"
	"github.com/example/mkc/internal/ctxutil"
	"github.com/example/mkc/internal/wire"
)

// globalActorID stores the logged in username for the current CLI invocation.
// Set once at startup by DetectAndStoreActor().
var globalActorID string

// DetectAndStoreActor resolves the logged in user from the session file and
// stores it globally. A missing or expired session leaves no actor; commands
// that need one then fail with an authentication error.
// Should be called once at CLI startup in PersistentPreRun.
func DetectAndStoreActor() {
	session, err := config.LoadConfig(wire.Env().Home)
	if err != nil || session.Token == "" {
		return
	}
	username, err := wire.VerifyToken(session.Token)
	if err != nil {
		return
	}
	globalActorID = username
}

// GetActorID returns the stored actor ID from CLI startup.
// Returns empty string if DetectAndStoreActor() was not called.
func GetActorID() string {
	return globalActorID
}

// NewContext creates a context.Background() with the current actor embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() context.Context {
	ctx := context.Background()
	if globalActorID != "" {
		return ctxutil.WithActorID(ctx, globalActorID)
	}
	return ctx
}
