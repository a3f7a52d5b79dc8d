package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dicelab/fairsim/runner"
)

func TestWriteThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, "test-plan")

	snapshot := runner.PlanSnapshot{
		CompletedSessionIDs: []string{"flat-0", "flat-1"},
	}
	if err := w.Write(snapshot); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := w.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got.CompletedSessionIDs) != 2 {
		t.Fatalf("expected 2 completed session ids, got %d", len(got.CompletedSessionIDs))
	}
}

func TestWriteIsAtomicNoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, "atomic-plan")

	if err := w.Write(runner.PlanSnapshot{}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file after write, got %d", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".zst" {
		t.Fatalf("expected the final .zst file, got %s", entries[0].Name())
	}
}

func TestCompletedSetBuildsLookup(t *testing.T) {
	set := CompletedSet(&runner.PlanSnapshot{CompletedSessionIDs: []string{"a", "b"}})
	if !set["a"] || !set["b"] || set["c"] {
		t.Fatalf("unexpected completed set %+v", set)
	}
}

func TestPruneRemovesOldCheckpoints(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, "old-plan")
	if err := w.Write(runner.PlanSnapshot{}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	old := time.Now().Add(-60 * 24 * time.Hour)
	if err := os.Chtimes(w.path(), old, old); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}

	if err := Prune(dir, DefaultMaxAge); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	if _, err := os.Stat(w.path()); !os.IsNotExist(err) {
		t.Fatalf("expected checkpoint to be pruned, stat err = %v", err)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	dir := t.TempDir()
	first := New(dir, "first")
	second := New(dir, "second")
	if err := first.Write(runner.PlanSnapshot{}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	older := time.Now().Add(-time.Hour)
	if err := os.Chtimes(first.path(), older, older); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}
	if err := second.Write(runner.PlanSnapshot{}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	names, err := List(dir)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(names) != 2 || names[0] != "second" {
		t.Fatalf("expected [second, first], got %v", names)
	}
}
