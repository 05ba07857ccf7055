package database

import (
	"path/filepath"
	"testing"
)

func saveGlobals(t *testing.T) {
	t.Helper()

	previousDB := MainDB
	previousBackend := ActiveBackend
	t.Cleanup(func() {
		MainDB = previousDB
		ActiveBackend = previousBackend
	})
}

func TestInitSetsGlobalsOnSuccess(t *testing.T) {
	saveGlobals(t)
	MainDB = nil
	ActiveBackend = ""

	t.Setenv("DB_BACKEND", BackendSQLite)
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "signals.db"))

	if err := Init(); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	if MainDB == nil {
		t.Fatalf("MainDB must be assigned after a successful init")
	}
	if ActiveBackend != BackendSQLite {
		t.Fatalf("ActiveBackend = %q, want %q", ActiveBackend, BackendSQLite)
	}
}

func TestInitFailureLeavesGlobalsUntouched(t *testing.T) {
	saveGlobals(t)
	MainDB = nil
	ActiveBackend = ""

	t.Setenv("DB_BACKEND", "oracle")

	if err := Init(); err == nil {
		t.Fatalf("expected an error for an unknown backend")
	}
	if MainDB != nil {
		t.Fatalf("failed init must not assign MainDB")
	}
	if ActiveBackend != "" {
		t.Fatalf("failed init must not assign ActiveBackend, got %q", ActiveBackend)
	}
}

func TestInitOpenFailureLeavesGlobalsUntouched(t *testing.T) {
	saveGlobals(t)
	MainDB = nil
	ActiveBackend = ""

	// Unwritable sqlite path: the parent directory does not exist.
	t.Setenv("DB_BACKEND", BackendSQLite)
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "missing", "nested", "signals.db"))

	if err := Init(); err == nil {
		t.Fatalf("expected an error for an unopenable database file")
	}
	if MainDB != nil || ActiveBackend != "" {
		t.Fatalf("failed init must not assign globals, got db=%v backend=%q", MainDB, ActiveBackend)
	}
}
