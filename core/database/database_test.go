package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConfigStrings(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss word", Name: "course"}
	if got, want := cfg.DSN(), "user=bot password=p@ss word host=db port=5432 dbname=course sslmode=disable"; got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
	if got, want := cfg.URL(), "postgres://bot:p%40ss%20word@db:5432/course?sslmode=disable"; got != want {
		t.Fatalf("URL = %q, want %q", got, want)
	}
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "0003_c.up.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	files := listMigrationFiles(dir)
	if diff := cmp.Diff([]string{"0001_a.up.sql", "0002_b.up.sql", "0003_c.up.sql"}, files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"0002_b.up.sql", "0003_c.up.sql"}, selectApplied(files, 1, 3)); diff != "" {
		t.Fatalf("applied mismatch (-want +got):\n%s", diff)
	}
	if got := selectApplied(files, 3, 3); got != nil {
		t.Fatalf("no change should select nothing, got %v", got)
	}
}

func TestMigrationsPath(t *testing.T) {
	dir := t.TempDir()
	got, err := migrationsPath(dir)
	if err != nil || got != dir {
		t.Fatalf("migrationsPath = %q, %v", got, err)
	}
	if _, err := migrationsPath(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
