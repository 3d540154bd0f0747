package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/mkc/internal/adapters/sqlite"
	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/ctxutil"
)

func writeContext() context.Context {
	ctx := ctxutil.WithActorID(context.Background(), "maker")
	return ctxutil.WithSubmissionKey(ctx, "key-1")
}

func TestTableName(t *testing.T) {
	tests := []struct {
		resource string
		want     string
		wantErr  bool
	}{
		{"client", `"clients"`, false},
		{"company", `"companies"`, false},
		{"savings_product", `"savings_products"`, false},
		{"client_identifier", `"client_identifiers"`, false},
		{`client"; DROP TABLE app_users; --`, "", true},
		{"Client", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.resource, func(t *testing.T) {
			got, err := sqlite.TableName(tt.resource)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrUnsupported) {
					t.Errorf("error = %v, want unsupported", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TableName failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("TableName(%q) = %s, want %s", tt.resource, got, tt.want)
			}
		})
	}
}

func TestDocumentStore_EnsureTables(t *testing.T) {
	db := setupTestDB(t)
	store := sqlite.NewDocumentStore(db)

	if err := store.EnsureTables(context.Background(), "client", "savings_product"); err != nil {
		t.Fatalf("EnsureTables failed: %v", err)
	}
	for _, table := range []string{"clients", "savings_products"} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if n != 1 {
			t.Errorf("table %s not created", table)
		}
	}
}

func TestDocumentStore_CommitWritesDocumentAndHistory(t *testing.T) {
	store := sqlite.NewDocumentStore(setupTestDB(t))
	ctx := writeContext()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	id, err := tx.Insert(ctx, "client", []byte(`{"firstname":"Ada"}`))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := tx.Replace(ctx, "client", id, []byte(`{"firstname":"Grace"}`)); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback after Commit = %v, want nil", err)
	}

	doc, err := store.Get(ctx, "client", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(doc) != `{"firstname":"Grace"}` {
		t.Errorf("document = %s", doc)
	}

	history, err := store.History(ctx, "client", id)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d history entries, want 2", len(history))
	}
	created, updated := history[0], history[1]
	if created.Operation != "create" || created.Before != "" || created.After != `{"firstname":"Ada"}` {
		t.Errorf("create entry = %+v", created)
	}
	if updated.Operation != "update" || updated.Before != `{"firstname":"Ada"}` || updated.After != `{"firstname":"Grace"}` {
		t.Errorf("update entry = %+v", updated)
	}
	if created.Operator != "maker" || created.SubmissionKey != "key-1" {
		t.Errorf("operator = %q, key = %q", created.Operator, created.SubmissionKey)
	}
}

func TestDocumentStore_RollbackDiscardsWritesAndHistory(t *testing.T) {
	store := sqlite.NewDocumentStore(setupTestDB(t))
	ctx := writeContext()
	if err := store.EnsureTables(ctx, "client"); err != nil {
		t.Fatalf("EnsureTables failed: %v", err)
	}

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	id, err := tx.Insert(ctx, "client", []byte(`{"firstname":"Ada"}`))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if _, err := store.Get(ctx, "client", id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get error = %v, want not_found", err)
	}
	history, err := store.History(ctx, "client", id)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("got %d history entries after rollback, want 0", len(history))
	}
}

func TestDocumentStore_Delete(t *testing.T) {
	store := sqlite.NewDocumentStore(setupTestDB(t))
	ctx := writeContext()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	id, err := tx.Insert(ctx, "client", []byte(`{"firstname":"Ada"}`))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	tx, err = store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := tx.Delete(ctx, "client", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := tx.Get(ctx, "client", id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("tx.Get after delete = %v, want not_found", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	history, err := store.History(ctx, "client", id)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 || history[1].Operation != "delete" || history[1].After != "" {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestDocumentStore_MissingDocument(t *testing.T) {
	store := sqlite.NewDocumentStore(setupTestDB(t))
	ctx := writeContext()

	if _, err := store.Get(ctx, "client", 42); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get error = %v, want not_found", err)
	}

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback()
	if err := tx.Replace(ctx, "client", 42, []byte(`{}`)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Replace error = %v, want not_found", err)
	}
	if err := tx.Delete(ctx, "client", 42); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Delete error = %v, want not_found", err)
	}
}

func TestDocumentStore_CommitUsesTransactionContext(t *testing.T) {
	store := sqlite.NewDocumentStore(setupTestDB(t))
	if err := store.EnsureTables(context.Background(), "client"); err != nil {
		t.Fatalf("EnsureTables failed: %v", err)
	}
	ctx, cancel := context.WithCancel(writeContext())

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback()
	id, err := tx.Insert(ctx, "client", []byte(`{"firstname":"Ada"}`))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	cancel()
	if err := tx.Commit(); err == nil {
		t.Fatal("Commit after cancellation should fail")
	}
	tx.Rollback()

	if _, err := store.Get(context.Background(), "client", id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get err = %v, want not_found", err)
	}
	history, err := store.History(context.Background(), "client", id)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history = %d entries, want none", len(history))
	}
}

func TestDocumentStore_WritesRejectUnsupportedResource(t *testing.T) {
	store := sqlite.NewDocumentStore(setupTestDB(t))
	ctx := writeContext()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer tx.Rollback()

	if err := tx.Replace(ctx, "Client", 1, []byte(`{}`)); !errors.Is(err, apperr.ErrUnsupported) {
		t.Errorf("Replace err = %v, want unsupported", err)
	}
	if err := tx.Delete(ctx, `client"--`, 1); !errors.Is(err, apperr.ErrUnsupported) {
		t.Errorf("Delete err = %v, want unsupported", err)
	}
}
