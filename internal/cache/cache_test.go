package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHasCreatesDirectory(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "Artist", "Album")

	store := NewStore("")
	has, err := store.Has(dir, "track-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if has {
		t.Fatalf("expected no record in fresh directory")
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("expected directory to be created: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected %s to be a directory", dir)
	}
}

func TestRecordThenHas(t *testing.T) {
	dir := t.TempDir()
	store := NewStore("")

	if err := store.Record(dir, "track-1"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	has, err := store.Has(dir, "track-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Fatalf("expected record to be found")
	}

	has, err = store.Has(dir, "track-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if has {
		t.Fatalf("expected no record for different id")
	}
}

func TestDuplicateRecordsAreHarmless(t *testing.T) {
	dir := t.TempDir()
	store := NewStore("")

	for i := 0; i < 3; i++ {
		if err := store.Record(dir, "track-1"); err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
	}
	has, err := store.Has(dir, "track-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Fatalf("expected record to be found after duplicate appends")
	}

	data, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	if err != nil {
		t.Fatalf("failed to read cache file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 appended lines, got %d", len(lines))
	}
	for _, line := range lines {
		if line != "spotdl track-1" {
			t.Fatalf("unexpected cache line: %q", line)
		}
	}
}

func TestHasMatchesBareLegacyLines(t *testing.T) {
	dir := t.TempDir()
	store := NewStore("")

	// Older caches stored the id without the namespace prefix.
	if err := os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("track-1\n"), 0644); err != nil {
		t.Fatalf("failed to seed cache file: %v", err)
	}
	has, err := store.Has(dir, "track-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Fatalf("expected legacy line to match")
	}
}

func TestCustomFileName(t *testing.T) {
	dir := t.TempDir()
	store := NewStore("songs.txt")

	if err := store.Record(dir, "abc"); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "songs.txt")); err != nil {
		t.Fatalf("expected custom cache file: %v", err)
	}
	has, err := store.Has(dir, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Fatalf("expected record in custom cache file")
	}
}
