package primary

import "context"

// UserService defines the primary port for application users.
type UserService interface {
	// CreateUser registers a user with optional initial permissions.
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)

	// GetUser retrieves a user by username.
	GetUser(ctx context.Context, username string) (*User, error)

	// ListUsers lists all users.
	ListUsers(ctx context.Context) ([]*User, error)

	// Grant adds permissions to a user.
	Grant(ctx context.Context, username string, permissions []string) (*User, error)

	// Revoke removes permissions from a user.
	Revoke(ctx context.Context, username string, permissions []string) (*User, error)

	// Login issues a session token for an existing user.
	Login(ctx context.Context, username string) (*LoginResponse, error)

	// Whoami resolves the user bound to a session token.
	Whoami(ctx context.Context, token string) (*User, error)
}

// CreateUserRequest contains parameters for creating a user.
type CreateUserRequest struct {
	Username    string
	DisplayName string
	Permissions []string
}

// User is the public view of an application user.
type User struct {
	ID          int64
	Username    string
	DisplayName string
	Permissions []string
	CreatedAt   string
}

// LoginResponse contains the issued session.
type LoginResponse struct {
	User      *User
	Token     string
	ExpiresAt string
}
