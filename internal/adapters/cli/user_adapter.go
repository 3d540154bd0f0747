package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/mkc/internal/ports/primary"
)

// UserAdapter translates CLI operations to UserService calls.
type UserAdapter struct {
	service primary.UserService
	out     io.Writer
}

// NewUserAdapter creates a new UserAdapter with the given service.
func NewUserAdapter(service primary.UserService, out io.Writer) *UserAdapter {
	return &UserAdapter{
		service: service,
		out:     out,
	}
}

// Add registers a user.
func (a *UserAdapter) Add(ctx context.Context, username, displayName string, permissions []string) error {
	user, err := a.service.CreateUser(ctx, primary.CreateUserRequest{
		Username:    username,
		DisplayName: displayName,
		Permissions: permissions,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s Created user %s (id %d)\n", okMark, user.Username, user.ID)
	if len(user.Permissions) > 0 {
		fmt.Fprintf(a.out, "  permissions: %s\n", strings.Join(user.Permissions, ", "))
	}
	return nil
}

// Grant adds permissions to a user.
func (a *UserAdapter) Grant(ctx context.Context, username string, permissions []string) error {
	user, err := a.service.Grant(ctx, username, permissions)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s now holds: %s\n", okMark, user.Username, joinOrNone(user.Permissions))
	return nil
}

// Revoke removes permissions from a user.
func (a *UserAdapter) Revoke(ctx context.Context, username string, permissions []string) error {
	user, err := a.service.Revoke(ctx, username, permissions)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s now holds: %s\n", okMark, user.Username, joinOrNone(user.Permissions))
	return nil
}

// List lists all users.
func (a *UserAdapter) List(ctx context.Context) error {
	users, err := a.service.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Fprintln(a.out, "No users found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-6s %-16s %-24s %s\n", "ID", "USERNAME", "NAME", "PERMISSIONS")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, u := range users {
		fmt.Fprintf(a.out, "%-6d %-16s %-24s %s\n", u.ID, u.Username, u.DisplayName, joinOrNone(u.Permissions))
	}
	fmt.Fprintln(a.out)
	return nil
}

// Login issues a session token. The caller stores it.
func (a *UserAdapter) Login(ctx context.Context, username string) (*primary.LoginResponse, error) {
	resp, err := a.service.Login(ctx, username)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "%s Logged in as %s (session expires %s)\n", okMark, resp.User.Username, resp.ExpiresAt)
	return resp, nil
}

// Whoami displays the user bound to token.
func (a *UserAdapter) Whoami(ctx context.Context, token string) error {
	user, err := a.service.Whoami(ctx, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (id %d)\n", user.Username, user.ID)
	if user.DisplayName != "" {
		fmt.Fprintf(a.out, "Name:        %s\n", user.DisplayName)
	}
	fmt.Fprintf(a.out, "Permissions: %s\n", joinOrNone(user.Permissions))
	return nil
}

func joinOrNone(perms []string) string {
	if len(perms) == 0 {
		return "(none)"
	}
	return strings.Join(perms, ", ")
}
