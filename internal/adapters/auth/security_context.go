package auth

import (
	"context"
	"errors"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/core/permission"
	"github.com/example/mkc/internal/ctxutil"
	"github.com/example/mkc/internal/ports/secondary"
)

// SecurityContext implements secondary.SecurityContext. The acting username
// travels in the context; permissions are loaded fresh on every call so a
// revoke takes effect without logging out.
type SecurityContext struct {
	users secondary.UserRepository
}

var _ secondary.SecurityContext = (*SecurityContext)(nil)

// NewSecurityContext creates a security context over the user repository.
func NewSecurityContext(users secondary.UserRepository) *SecurityContext {
	return &SecurityContext{users: users}
}

// CurrentActor returns the actor bound to ctx.
func (s *SecurityContext) CurrentActor(ctx context.Context) (*permission.Actor, error) {
	username := ctxutil.ActorFromContext(ctx)
	if username == "" {
		return nil, apperr.New(apperr.CodeAuthentication, "no authenticated user")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.New(apperr.CodeAuthentication, "unknown user %s", username)
	}
	if err != nil {
		return nil, err
	}
	return permission.NewActor(user.ID, user.Username, user.Permissions), nil
}
