package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/ports/secondary"
)

// UserRepository implements secondary.UserRepository with SQLite.
type UserRepository struct {
	db *sql.DB
}

var _ secondary.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists a new user. Permissions are stored separately via Grant.
func (r *UserRepository) Create(ctx context.Context, user *secondary.UserRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO app_users (username, display_name) VALUES (?, ?)",
		user.Username, nullString(user.DisplayName),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Wrap(apperr.CodeConflict, err, "user %s already exists", user.Username)
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return res.LastInsertId()
}

// GetByID retrieves a user and its permissions by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*secondary.UserRecord, error) {
	record, err := r.get(ctx, "id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", id)
	}
	return record, err
}

// GetByUsername retrieves a user and its permissions by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*secondary.UserRecord, error) {
	record, err := r.get(ctx, "username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.CodeNotFound, "user %s not found", username)
	}
	return record, err
}

func (r *UserRepository) get(ctx context.Context, where string, arg any) (*secondary.UserRecord, error) {
	var (
		name      sql.NullString
		createdAt time.Time
	)
	record := &secondary.UserRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, display_name, created_at FROM app_users WHERE "+where, arg,
	).Scan(&record.ID, &record.Username, &name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	record.DisplayName = name.String
	record.CreatedAt = createdAt.Format(time.RFC3339)

	record.Permissions, err = r.permissions(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *UserRepository) permissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT permission FROM user_permissions WHERE user_id = ? ORDER BY permission", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// List retrieves all users ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]*secondary.UserRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, username, display_name, created_at FROM app_users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var users []*secondary.UserRecord
	for rows.Next() {
		var (
			name      sql.NullString
			createdAt time.Time
		)
		record := &secondary.UserRecord{}
		if err := rows.Scan(&record.ID, &record.Username, &name, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		record.DisplayName = name.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		users = append(users, record)
	}
	// Close before the permission queries; the pool holds a single connection.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Permissions, err = r.permissions(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Grant adds permissions to a user. Already held permissions are ignored.
func (r *UserRepository) Grant(ctx context.Context, userID int64, permissions []string) error {
	return r.eachPermission(ctx, userID, permissions,
		"INSERT OR IGNORE INTO user_permissions (user_id, permission) VALUES (?, ?)")
}

// Revoke removes permissions from a user.
func (r *UserRepository) Revoke(ctx context.Context, userID int64, permissions []string) error {
	return r.eachPermission(ctx, userID, permissions,
		"DELETE FROM user_permissions WHERE user_id = ? AND permission = ?")
}

func (r *UserRepository) eachPermission(ctx context.Context, userID int64, permissions []string, stmt string) error {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM app_users WHERE id = ?", userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if exists == 0 {
		return apperr.NotFound("user", userID)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range permissions {
		if _, err := tx.ExecContext(ctx, stmt, userID, p); err != nil {
			return fmt.Errorf("failed to change permission %s: %w", p, err)
		}
	}
	return tx.Commit()
}
