package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/mkc/internal/adapters/sqlite"
	"github.com/example/mkc/internal/apperr"
	"github.com/example/mkc/internal/ports/secondary"
)

func newCommandRecord(makerID int64, resource, action, key string) *secondary.CommandSourceRecord {
	return &secondary.CommandSourceRecord{
		ResourceName:  resource,
		Action:        action,
		JSON:          `{"firstname":"Ada"}`,
		MadeBy:        makerID,
		MadeOn:        "2026-10-17",
		SubmissionKey: key,
	}
}

func TestCommandSourceRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCommandSourceRepository(db)
	ctx := context.Background()
	maker := seedUser(t, db, "maker")

	id, err := repo.Create(ctx, newCommandRecord(maker, "client", "CREATE", "key-1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ResourceName != "client" || got.Action != "CREATE" || got.JSON != `{"firstname":"Ada"}` {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.ResourceID != nil || got.Checked || got.CheckedBy != nil || got.CheckedOn != "" {
		t.Errorf("new record should be unchecked without resource id: %+v", got)
	}
	if got.MadeBy != maker || got.MadeOn != "2026-10-17" {
		t.Errorf("maker stamp = %d %q", got.MadeBy, got.MadeOn)
	}

	byKey, err := repo.GetBySubmissionKey(ctx, "key-1")
	if err != nil {
		t.Fatalf("GetBySubmissionKey failed: %v", err)
	}
	if byKey.ID != id {
		t.Errorf("GetBySubmissionKey id = %d, want %d", byKey.ID, id)
	}
}

func TestCommandSourceRepository_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCommandSourceRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, 99); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetByID error = %v, want not_found", err)
	}
	if _, err := repo.GetBySubmissionKey(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetBySubmissionKey error = %v, want not_found", err)
	}
	err := repo.Update(ctx, &secondary.CommandSourceRecord{ID: 99, JSON: "{}"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Update error = %v, want not_found", err)
	}
}

func TestCommandSourceRepository_DuplicateSubmissionKey(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCommandSourceRepository(db)
	ctx := context.Background()
	maker := seedUser(t, db, "maker")

	if _, err := repo.Create(ctx, newCommandRecord(maker, "client", "CREATE", "dup")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := repo.Create(ctx, newCommandRecord(maker, "client", "DELETE", "dup"))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestCommandSourceRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCommandSourceRepository(db)
	ctx := context.Background()
	maker := seedUser(t, db, "maker")
	checker := seedUser(t, db, "checker")

	id, err := repo.Create(ctx, newCommandRecord(maker, "client", "CREATE", "key-1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	record, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	record.ResourceID = int64Ptr(12)
	record.Checked = true
	record.CheckedBy = int64Ptr(checker)
	record.CheckedOn = "2026-10-18"
	if err := repo.Update(ctx, record); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ResourceID == nil || *got.ResourceID != 12 {
		t.Errorf("ResourceID = %v, want 12", got.ResourceID)
	}
	if !got.Checked || got.CheckedBy == nil || *got.CheckedBy != checker || got.CheckedOn != "2026-10-18" {
		t.Errorf("checker stamp not stored: %+v", got)
	}
}

func TestCommandSourceRepository_CheckedRequiresStamp(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCommandSourceRepository(db)
	ctx := context.Background()
	maker := seedUser(t, db, "maker")

	record := newCommandRecord(maker, "client", "CREATE", "key-1")
	record.Checked = true
	if _, err := repo.Create(ctx, record); err == nil {
		t.Error("expected constraint error for checked record without checker stamp")
	}
}

func TestCommandSourceRepository_ClaimIsExclusive(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCommandSourceRepository(db)
	ctx := context.Background()
	maker := seedUser(t, db, "maker")
	checker := seedUser(t, db, "checker")
	other := seedUser(t, db, "other")

	id, err := repo.Create(ctx, newCommandRecord(maker, "client", "DELETE", "key-1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Claim(ctx, id, checker, "2026-10-17"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := repo.Claim(ctx, id, other, "2026-10-17"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second Claim err = %v, want conflict", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Checked || got.CheckedBy == nil || *got.CheckedBy != checker || got.CheckedOn != "2026-10-17" {
		t.Errorf("claimed record = %+v, want checked by %d", got, checker)
	}

	if err := repo.Release(ctx, id); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	got, _ = repo.GetByID(ctx, id)
	if got.Checked || got.CheckedBy != nil || got.CheckedOn != "" {
		t.Errorf("released record = %+v, want unchecked", got)
	}
	if err := repo.Claim(ctx, id, other, "2026-10-18"); err != nil {
		t.Errorf("Claim after Release failed: %v", err)
	}

	if err := repo.Claim(ctx, 999, checker, "2026-10-17"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Claim of unknown command err = %v, want not_found", err)
	}
}

func TestCommandSourceRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCommandSourceRepository(db)
	ctx := context.Background()
	maker := seedUser(t, db, "maker")

	id, err := repo.Create(ctx, newCommandRecord(maker, "client", "CREATE", "key-1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetByID after Delete err = %v, want not_found", err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete err = %v, want not_found", err)
	}

	// the submission key is free again
	if _, err := repo.Create(ctx, newCommandRecord(maker, "client", "CREATE", "key-1")); err != nil {
		t.Errorf("Create after Delete failed: %v", err)
	}
}

func TestCommandSourceRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewCommandSourceRepository(db)
	ctx := context.Background()
	maker := seedUser(t, db, "maker")
	checker := seedUser(t, db, "checker")

	for i, r := range []struct{ resource, key string }{
		{"client", "a"},
		{"savings_product", "b"},
		{"client", "c"},
	} {
		rec := newCommandRecord(maker, r.resource, "CREATE", r.key)
		if i == 0 {
			rec.Checked = true
			rec.CheckedBy = int64Ptr(checker)
			rec.CheckedOn = "2026-10-17"
		}
		if _, err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		filters secondary.CommandSourceFilters
		want    []string
	}{
		{"all newest first", secondary.CommandSourceFilters{}, []string{"c", "b", "a"}},
		{"by resource", secondary.CommandSourceFilters{ResourceName: "client"}, []string{"c", "a"}},
		{"pending", secondary.CommandSourceFilters{Checked: boolPtr(false)}, []string{"c", "b"}},
		{"checked client", secondary.CommandSourceFilters{ResourceName: "client", Checked: boolPtr(true)}, []string{"a"}},
		{"limit", secondary.CommandSourceFilters{Limit: 1}, []string{"c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := repo.List(ctx, tt.filters)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(records) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(records), len(tt.want))
			}
			for i, r := range records {
				if r.SubmissionKey != tt.want[i] {
					t.Errorf("record %d key = %q, want %q", i, r.SubmissionKey, tt.want[i])
				}
			}
		})
	}
}
