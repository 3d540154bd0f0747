package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/jinzhu/inflection"

	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/ctxutil"
	"github.com/example/mkc/internal/ports/secondary"
)

var resourcePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// DocumentStore implements secondary.DocumentStore and secondary.HistoryReader
// with SQLite. Each resource gets its own table named after the plural of the
// resource, e.g. client documents live in "clients".
type DocumentStore struct {
	db *sql.DB

	mu      sync.Mutex
	ensured map[string]bool
}

var (
	_ secondary.DocumentStore = (*DocumentStore)(nil)
	_ secondary.HistoryReader = (*DocumentStore)(nil)
	_ secondary.DocumentTx    = (*documentTx)(nil)
)

// NewDocumentStore creates a new SQLite document store.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db, ensured: make(map[string]bool)}
}

// TableName returns the quoted table holding documents of resource.
func TableName(resource string) (string, error) {
	if !resourcePattern.MatchString(resource) {
		return "", apperr.New(apperr.CodeUnsupported, "invalid resource name %q", resource)
	}
	return `"` + inflection.Plural(resource) + `"`, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func createTable(ctx context.Context, ex execer, table string) error {
	_, err := ex.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// EnsureTables creates the document tables of resources if missing.
func (s *DocumentStore) EnsureTables(ctx context.Context, resources ...string) error {
	for _, resource := range resources {
		if _, err := s.ensure(ctx, resource); err != nil {
			return err
		}
	}
	return nil
}

func (s *DocumentStore) ensure(ctx context.Context, resource string) (string, error) {
	table, err := TableName(resource)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured[resource] {
		return table, nil
	}
	if err := createTable(ctx, s.db, table); err != nil {
		return "", err
	}
	s.ensured[resource] = true
	return table, nil
}

// Get retrieves a committed document.
func (s *DocumentStore) Get(ctx context.Context, resource string, id int64) ([]byte, error) {
	table, err := s.ensure(ctx, resource)
	if err != nil {
		return nil, err
	}
	return getDocument(ctx, s.db, table, resource, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDocument(ctx context.Context, q queryer, table, resource string, id int64) ([]byte, error) {
	var doc string
	err := q.QueryRowContext(ctx, "SELECT document FROM "+table+" WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(resource, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", resource, err)
	}
	return []byte(doc), nil
}

// Begin starts a write transaction.
func (s *DocumentStore) Begin(ctx context.Context) (secondary.DocumentTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &documentTx{store: s, tx: tx, ctx: ctx}, nil
}

// History returns the committed writes of one entity instance, oldest first.
func (s *DocumentStore) History(ctx context.Context, resource string, id int64) ([]*secondary.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, resource, resource_id, operation, before_json, after_json, operator,
			submission_key, created_at
		 FROM entity_history WHERE resource = ? AND resource_id = ? ORDER BY id`,
		resource, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []*secondary.HistoryRecord
	for rows.Next() {
		var (
			before, after, operator, key sql.NullString
			createdAt                    time.Time
		)
		record := &secondary.HistoryRecord{}
		if err := rows.Scan(&record.ID, &record.Resource, &record.ResourceID, &record.Operation,
			&before, &after, &operator, &key, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		record.Before = before.String
		record.After = after.String
		record.Operator = operator.String
		record.SubmissionKey = key.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		records = append(records, record)
	}
	return records, rows.Err()
}

// historyEntry is a write waiting for its transaction to commit.
type historyEntry struct {
	resource      string
	resourceID    int64
	operation     string
	before, after string
	operator      string
	submissionKey string
}

type documentTx struct {
	store *DocumentStore
	tx    *sql.Tx
	ctx   context.Context // of Begin; bounds Commit
	buf   []historyEntry
	done  bool
}

// table resolves the table of resource inside the transaction. Tables are
// created on the transaction so a rollback also drops a table it created.
func (t *documentTx) table(ctx context.Context, resource string) (string, error) {
	table, err := TableName(resource)
	if err != nil {
		return "", err
	}
	t.store.mu.Lock()
	known := t.store.ensured[resource]
	t.store.mu.Unlock()
	if known {
		return table, nil
	}
	return table, createTable(ctx, t.tx, table)
}

func (t *documentTx) record(ctx context.Context, resource string, id int64, op, before, after string) {
	t.buf = append(t.buf, historyEntry{
		resource:      resource,
		resourceID:    id,
		operation:     op,
		before:        before,
		after:         after,
		operator:      ctxutil.ActorFromContext(ctx),
		submissionKey: ctxutil.SubmissionKeyFromContext(ctx),
	})
}

func (t *documentTx) Get(ctx context.Context, resource string, id int64) ([]byte, error) {
	_, doc, err := t.current(ctx, resource, id)
	return doc, err
}

// current resolves the table of resource and reads document id from it.
func (t *documentTx) current(ctx context.Context, resource string, id int64) (string, []byte, error) {
	table, err := t.table(ctx, resource)
	if err != nil {
		return "", nil, err
	}
	doc, err := getDocument(ctx, t.tx, table, resource, id)
	if err != nil {
		return "", nil, err
	}
	return table, doc, nil
}

func (t *documentTx) Insert(ctx context.Context, resource string, doc []byte) (int64, error) {
	table, err := t.table(ctx, resource)
	if err != nil {
		return 0, err
	}
	res, err := t.tx.ExecContext(ctx, "INSERT INTO "+table+" (document) VALUES (?)", string(doc))
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s: %w", resource, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s id: %w", resource, err)
	}
	t.record(ctx, resource, id, "create", "", string(doc))
	return id, nil
}

func (t *documentTx) Replace(ctx context.Context, resource string, id int64, doc []byte) error {
	table, before, err := t.current(ctx, resource, id)
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx,
		"UPDATE "+table+" SET document = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(doc), id,
	); err != nil {
		return fmt.Errorf("failed to update %s: %w", resource, err)
	}
	t.record(ctx, resource, id, "update", string(before), string(doc))
	return nil
}

func (t *documentTx) Delete(ctx context.Context, resource string, id int64) error {
	table, before, err := t.current(ctx, resource, id)
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", resource, err)
	}
	t.record(ctx, resource, id, "delete", string(before), "")
	return nil
}

// Commit flushes the buffered history into entity_history and commits.
func (t *documentTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	for _, e := range t.buf {
		_, err := t.tx.ExecContext(t.ctx,
			`INSERT INTO entity_history (resource, resource_id, operation, before_json, after_json,
				operator, submission_key)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.resource, e.resourceID, e.operation,
			nullString(e.before), nullString(e.after), nullString(e.operator), nullString(e.submissionKey),
		)
		if err != nil {
			return fmt.Errorf("failed to write history: %w", err)
		}
	}
	t.done = true
	t.buf = nil
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Rollback discards the writes and their history.
func (t *documentTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.buf = nil
	return t.tx.Rollback()
}

