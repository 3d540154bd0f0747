package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/mkc/internal/ports/secondary"
)

// PolicyRepository implements secondary.PolicyRepository with SQLite.
type PolicyRepository struct {
	db *sql.DB
}

var _ secondary.PolicyRepository = (*PolicyRepository)(nil)

// NewPolicyRepository creates a new SQLite policy repository.
func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// RequiresChecker reports whether code is enabled for maker-checker.
func (r *PolicyRepository) RequiresChecker(ctx context.Context, code string) (bool, error) {
	var enabled int
	err := r.db.QueryRowContext(ctx,
		"SELECT enabled FROM maker_checker_settings WHERE code = ?", code,
	).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read maker-checker setting: %w", err)
	}
	return enabled == 1, nil
}

// SetMakerChecker stores the setting for code, replacing any previous one.
func (r *PolicyRepository) SetMakerChecker(ctx context.Context, code string, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO maker_checker_settings (code, enabled, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(code) DO UPDATE SET enabled = excluded.enabled, updated_at = CURRENT_TIMESTAMP`,
		code, boolToInt(enabled),
	)
	if err != nil {
		return fmt.Errorf("failed to set maker-checker setting: %w", err)
	}
	return nil
}

// List retrieves every stored setting ordered by code.
func (r *PolicyRepository) List(ctx context.Context) ([]*secondary.MakerCheckerRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT code, enabled, updated_at FROM maker_checker_settings ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to list maker-checker settings: %w", err)
	}
	defer rows.Close()

	var records []*secondary.MakerCheckerRecord
	for rows.Next() {
		var (
			enabled   int
			updatedAt time.Time
		)
		record := &secondary.MakerCheckerRecord{}
		if err := rows.Scan(&record.Code, &enabled, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan maker-checker setting: %w", err)
		}
		record.Enabled = enabled == 1
		record.UpdatedAt = updatedAt.Format(time.RFC3339)
		records = append(records, record)
	}
	return records, rows.Err()
}
