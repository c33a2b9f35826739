// Package filelock hands out one exclusive lock per canonical file path.
//
// Locks are created lazily under a single table guard and are never removed,
// which is fine for one batch run. A long-lived service reusing a Table would
// need to prune idle entries.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var ErrEmptyPath = errors.New("file path must not be empty")

// fileLock is a mutex that can be waited on with a context.
type fileLock chan struct{}

// Table maps canonical paths to their locks.
type Table struct {
	guard sync.Mutex
	locks map[string]fileLock
}

// New creates an empty lock table.
func New() *Table {
	return &Table{locks: make(map[string]fileLock)}
}

// Acquire blocks until the lock for path is held or ctx is done. The returned
// release func is safe to call more than once.
func (t *Table) Acquire(ctx context.Context, path string) (func(), error) {
	key, err := Canonical(path)
	if err != nil {
		return nil, err
	}
	lock := t.lockFor(key)

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for lock on %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-lock })
	}, nil
}

// lockFor returns the lock for an already canonical key, creating it under
// the table guard so concurrent callers always share one lock per path.
func (t *Table) lockFor(key string) fileLock {
	t.guard.Lock()
	defer t.guard.Unlock()

	lock, ok := t.locks[key]
	if !ok {
		lock = make(fileLock, 1)
		t.locks[key] = lock
	}
	return lock
}

// Len reports how many distinct paths have been locked so far.
func (t *Table) Len() int {
	t.guard.Lock()
	defer t.guard.Unlock()
	return len(t.locks)
}

// Canonical returns an absolute, cleaned path with symlinks resolved on the
// longest prefix that exists. Files that do not exist yet still map to the
// same key as later references through a symlinked parent directory.
func Canonical(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	var missing []string
	current := abs
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to resolve symlinks for %s: %w", path, err)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}
