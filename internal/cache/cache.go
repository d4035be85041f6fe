// Package cache persists which items have already been acquired for a
// destination directory, so interrupted runs can resume without
// re-downloading completed work.
//
// The cache is a plain text file inside the destination directory, one
// record per line in the form "spotdl <id>". It is append-only: records
// are never rewritten or deduplicated, which keeps a crash mid-run from
// ever corrupting earlier records. Concurrent runs writing the same
// directory are a known limitation and are guarded against at the process
// level only (see the lockfile package).
package cache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// namespace prefixes every record so foreign lines in a shared dotfile are
// never mistaken for ours.
const namespace = "spotdl"

// DefaultFileName is the cache dotfile used when none is configured.
const DefaultFileName = ".spdlcache"

// Store answers membership queries against, and appends records to, the
// per-directory cache file.
type Store struct {
	fileName string
}

// NewStore returns a Store using the given cache file name, or
// DefaultFileName when empty.
func NewStore(fileName string) *Store {
	if strings.TrimSpace(fileName) == "" {
		fileName = DefaultFileName
	}
	return &Store{fileName: fileName}
}

// FileName returns the cache file name used inside each directory.
func (s *Store) FileName() string {
	return s.fileName
}

func (s *Store) path(dir string) string {
	return filepath.Join(dir, s.fileName)
}

// Has reports whether id was already recorded for dir. It also ensures dir
// exists, since downstream acquisition assumes the destination directory
// is present.
func (s *Store) Has(dir, id string) (bool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create destination directory: %w", err)
	}
	f, err := os.Open(s.path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if recordID(scanner.Text()) == id {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read cache file: %w", err)
	}
	return false, nil
}

// Record appends one line for id to dir's cache file, creating the file if
// absent. Calling it twice for the same id is harmless: membership is
// first-match and the file is never rewritten.
func (s *Store) Record(dir, id string) error {
	f, err := os.OpenFile(s.path(dir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open cache file for append: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s %s\n", namespace, id); err != nil {
		return fmt.Errorf("failed to append cache record: %w", err)
	}
	return nil
}

// recordID strips the namespace prefix from a cache line. Lines without
// the prefix are returned whole so caches written by older versions, which
// stored bare ids, still match.
func recordID(line string) string {
	line = strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(line, namespace+" "); ok {
		return strings.TrimSpace(rest)
	}
	return line
}
