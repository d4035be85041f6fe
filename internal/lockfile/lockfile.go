// Package lockfile serializes runs targeting the same output directory.
// The cache file is append-only and survives a crash, but two processes
// appending to it at once would interleave acquisitions, so a run holds an
// exclusive flock on a dotfile inside the output root for its lifetime.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const lockFileName = ".spotdl.lock"

// Lock is a held exclusive lock that must be released with Release.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive non-blocking lock on outputDir, retrying with
// a 100ms delay up to maxRetries times.
func Acquire(outputDir string, maxRetries int) (*Lock, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	lockPath := filepath.Join(outputDir, lockFileName)

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open lock file: %w", err)
		}

		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return &Lock{file: f, path: lockPath}, nil
		}
		f.Close()
		lastErr = err

		if i < maxRetries {
			time.Sleep(100 * time.Millisecond)
		}
	}
	return nil, fmt.Errorf("another run is using this output directory: %w", lastErr)
}

// Release drops the lock and closes the lock file. Safe to call twice.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		l.file.Close()
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close lock file: %w", err)
	}
	l.file = nil
	return nil
}
