package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}

	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	if err := repo.CreateUser(t.Context(), User{
		ID:           "user-rt-1",
		Email:        "rt@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
	}); err != nil {
		t.Fatalf("insert user after roundtrip failed: %v", err)
	}
	if err := repo.CreateTask(t.Context(), Task{
		ID:        "task-rt-1",
		UserID:    "user-rt-1",
		Title:     "Roundtrip task",
		Emoji:     "📝",
		Notes:     "migration compatibility",
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("insert after roundtrip failed: %v", err)
	}

	got, err := repo.GetTask(t.Context(), "task-rt-1")
	if err != nil {
		t.Fatalf("get after roundtrip failed: %v", err)
	}
	if got.Title != "Roundtrip task" || got.Emoji != "📝" {
		t.Fatalf("unexpected task after roundtrip: %#v", got)
	}
}

func TestMigrateTracksSchemaVersion(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "version.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if v, err := SchemaVersion(db); err != nil || v != 0 {
		t.Fatalf("expected fresh database at version 0, got %d (%v)", v, err)
	}
	steps, err := listMigrations(".up.sql")
	if err != nil || len(steps) == 0 {
		t.Fatalf("list migrations: %v", err)
	}
	latest := steps[len(steps)-1].version

	for i := 0; i < 2; i++ {
		if err := MigrateUp(db); err != nil {
			t.Fatalf("migrate up #%d: %v", i+1, err)
		}
		if v, _ := SchemaVersion(db); v != latest {
			t.Fatalf("expected version %d after up #%d, got %d", latest, i+1, v)
		}
	}
	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if v, _ := SchemaVersion(db); v != 0 {
		t.Fatalf("expected version 0 after down, got %d", v)
	}
	var tables int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'tasks')`).Scan(&tables); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if tables != 0 {
		t.Fatalf("expected tables dropped, found %d", tables)
	}
}
