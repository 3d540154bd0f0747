package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/ports/primary"
	"github.com/example/mkc/internal/ports/secondary"
)

var (
	usernamePattern   = regexp.MustCompile(`^[a-z][a-z0-9_.-]{1,31}$`)
	permissionPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	userRepo secondary.UserRepository
	tokens   secondary.TokenIssuer
}

var _ primary.UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService with injected dependencies.
func NewUserService(userRepo secondary.UserRepository, tokens secondary.TokenIssuer) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// CreateUser registers a new user.
func (s *UserServiceImpl) CreateUser(ctx context.Context, req primary.CreateUserRequest) (*primary.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if !usernamePattern.MatchString(username) {
		return nil, apperr.New(apperr.CodeValidation, "invalid username %q", req.Username)
	}
	perms, err := normalizePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}

	id, err := s.userRepo.Create(ctx, &secondary.UserRecord{
		Username:    username,
		DisplayName: strings.TrimSpace(req.DisplayName),
	})
	if err != nil {
		return nil, err
	}
	if len(perms) > 0 {
		if err := s.userRepo.Grant(ctx, id, perms); err != nil {
			return nil, fmt.Errorf("failed to grant permissions: %w", err)
		}
	}

	created, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created user: %w", err)
	}
	return recordToUser(created), nil
}

// GetUser retrieves a user by username.
func (s *UserServiceImpl) GetUser(ctx context.Context, username string) (*primary.User, error) {
	record, err := s.userRepo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	return recordToUser(record), nil
}

// ListUsers lists all users.
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]*primary.User, error) {
	records, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*primary.User, len(records))
	for i, r := range records {
		users[i] = recordToUser(r)
	}
	return users, nil
}

// Grant adds permissions to a user.
func (s *UserServiceImpl) Grant(ctx context.Context, username string, permissions []string) (*primary.User, error) {
	return s.changePermissions(ctx, username, permissions, s.userRepo.Grant)
}

// Revoke removes permissions from a user.
func (s *UserServiceImpl) Revoke(ctx context.Context, username string, permissions []string) (*primary.User, error) {
	return s.changePermissions(ctx, username, permissions, s.userRepo.Revoke)
}

func (s *UserServiceImpl) changePermissions(ctx context.Context, username string, permissions []string, apply func(context.Context, int64, []string) error) (*primary.User, error) {
	perms, err := normalizePermissions(permissions)
	if err != nil {
		return nil, err
	}
	if len(perms) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "at least one permission is required")
	}
	record, err := s.userRepo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	if err := apply(ctx, record.ID, perms); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}
	updated, err := s.userRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return recordToUser(updated), nil
}

// Login issues a session token for an existing user.
func (s *UserServiceImpl) Login(ctx context.Context, username string) (*primary.LoginResponse, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &primary.LoginResponse{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Whoami resolves the user of a session token.
func (s *UserServiceImpl) Whoami(ctx context.Context, token string) (*primary.User, error) {
	username, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, username)
}

func normalizePermissions(perms []string) ([]string, error) {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !permissionPattern.MatchString(p) {
			return nil, apperr.New(apperr.CodeValidation, "invalid permission code %q", p)
		}
		out = append(out, p)
	}
	return out, nil
}

func recordToUser(r *secondary.UserRecord) *primary.User {
	return &primary.User{
		ID:          r.ID,
		Username:    r.Username,
		DisplayName: r.DisplayName,
		Permissions: append([]string(nil), r.Permissions...),
		CreatedAt:   r.CreatedAt,
	}
}
