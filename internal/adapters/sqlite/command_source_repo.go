// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/ports/secondary"
)

// CommandSourceRepository implements secondary.CommandSourceRepository with SQLite.
type CommandSourceRepository struct {
	db *sql.DB
}

var _ secondary.CommandSourceRepository = (*CommandSourceRepository)(nil)

// NewCommandSourceRepository creates a new SQLite command source repository.
func NewCommandSourceRepository(db *sql.DB) *CommandSourceRepository {
	return &CommandSourceRepository{db: db}
}

const commandSourceColumns = `id, resource_name, resource_id, action, command_json, checked,
	checked_by, checked_on, made_by, made_on, submission_key`

// Create persists a new command source and returns its ID.
func (r *CommandSourceRepository) Create(ctx context.Context, record *secondary.CommandSourceRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO command_sources (resource_name, resource_id, action, command_json, checked,
			checked_by, checked_on, made_by, made_on, submission_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ResourceName,
		nullInt64(record.ResourceID),
		record.Action,
		record.JSON,
		boolToInt(record.Checked),
		nullInt64(record.CheckedBy),
		nullString(record.CheckedOn),
		record.MadeBy,
		record.MadeOn,
		record.SubmissionKey,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Wrap(apperr.CodeConflict, err, "submission %s already exists", record.SubmissionKey)
		}
		return 0, fmt.Errorf("failed to create command source: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read command source id: %w", err)
	}
	return id, nil
}

// GetByID retrieves a command source by its ID.
func (r *CommandSourceRepository) GetByID(ctx context.Context, id int64) (*secondary.CommandSourceRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+commandSourceColumns+" FROM command_sources WHERE id = ?", id)
	record, err := scanCommandSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("command", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get command source: %w", err)
	}
	return record, nil
}

// GetBySubmissionKey retrieves the command source submitted under key.
func (r *CommandSourceRepository) GetBySubmissionKey(ctx context.Context, key string) (*secondary.CommandSourceRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+commandSourceColumns+" FROM command_sources WHERE submission_key = ?", key)
	record, err := scanCommandSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.CodeNotFound, "no command with submission key %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get command source: %w", err)
	}
	return record, nil
}

// Update replaces the mutable columns of a command source. Resource name,
// action, maker stamp and submission key never change.
func (r *CommandSourceRepository) Update(ctx context.Context, record *secondary.CommandSourceRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE command_sources
		 SET resource_id = ?, command_json = ?, checked = ?, checked_by = ?, checked_on = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		nullInt64(record.ResourceID),
		record.JSON,
		boolToInt(record.Checked),
		nullInt64(record.CheckedBy),
		nullString(record.CheckedOn),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update command source: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("command", record.ID)
	}
	return nil
}

// Claim stamps a pending command source as checked by checkerID in a single
// statement, so only one caller can take it. Returns a conflict error when it
// is already checked.
func (r *CommandSourceRepository) Claim(ctx context.Context, id, checkerID int64, checkedOn string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE command_sources
		 SET checked = 1, checked_by = ?, checked_on = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND checked = 0`,
		checkerID, checkedOn, id,
	)
	if err != nil {
		return fmt.Errorf("failed to claim command source: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return apperr.New(apperr.CodeConflict, "command %d is already checked", id)
}

// Release clears the checked stamp of a claimed command source.
func (r *CommandSourceRepository) Release(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE command_sources
		 SET checked = 0, checked_by = NULL, checked_on = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to release command source: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("command", id)
	}
	return nil
}

// Delete removes a command source.
func (r *CommandSourceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM command_sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete command source: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("command", id)
	}
	return nil
}

// List retrieves command sources matching the given filters, newest first.
func (r *CommandSourceRepository) List(ctx context.Context, filters secondary.CommandSourceFilters) ([]*secondary.CommandSourceRecord, error) {
	query := "SELECT " + commandSourceColumns + " FROM command_sources"
	var (
		where []string
		args  []any
	)
	if filters.ResourceName != "" {
		where = append(where, "resource_name = ?")
		args = append(args, filters.ResourceName)
	}
	if filters.Checked != nil {
		where = append(where, "checked = ?")
		args = append(args, boolToInt(*filters.Checked))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list command sources: %w", err)
	}
	defer rows.Close()

	var records []*secondary.CommandSourceRecord
	for rows.Next() {
		record, err := scanCommandSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan command source: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommandSource(row rowScanner) (*secondary.CommandSourceRecord, error) {
	var (
		resourceID sql.NullInt64
		checked    int
		checkedBy  sql.NullInt64
		checkedOn  sql.NullString
	)
	record := &secondary.CommandSourceRecord{}
	err := row.Scan(&record.ID, &record.ResourceName, &resourceID, &record.Action, &record.JSON,
		&checked, &checkedBy, &checkedOn, &record.MadeBy, &record.MadeOn, &record.SubmissionKey)
	if err != nil {
		return nil, err
	}
	if resourceID.Valid {
		record.ResourceID = &resourceID.Int64
	}
	record.Checked = checked == 1
	if checkedBy.Valid {
		record.CheckedBy = &checkedBy.Int64
	}
	record.CheckedOn = checkedOn.String
	return record, nil
}

// Helper functions

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
