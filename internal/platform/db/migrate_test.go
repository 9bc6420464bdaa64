package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestMigratorLoad(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "002_indexes.sql", "CREATE INDEX x ON person (status);")
	writeMigration(t, dir, "001_core.sql", "CREATE TABLE person (id UUID PRIMARY KEY);")
	writeMigration(t, dir, "notes.txt", "not a migration")
	writeMigration(t, dir, "draft.sql", "no version prefix")

	m := NewMigrator(nil, dir)
	migrations, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("loaded %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "core" {
		t.Fatalf("first = %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "indexes" {
		t.Fatalf("second = %+v", migrations[1])
	}
	if migrations[0].SQL == "" {
		t.Fatal("migration SQL not read")
	}
}

func TestMigratorLoadMissingDir(t *testing.T) {
	m := NewMigrator(nil, filepath.Join(t.TempDir(), "absent"))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
