// Package runlock serializes task runs that share a data root, both within a
// process and across processes.
package runlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const defaultRetryDelay = 50 * time.Millisecond

// Lock pairs an in-process mutex with an advisory file lock.
type Lock struct {
	mu   sync.Mutex
	file *flock.Flock
	path string
}

// New returns a lock backed by the file at path. The parent directory is
// created on demand.
func New(path string) (*Lock, error) {
	if path == "" {
		return nil, fmt.Errorf("lock path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	return &Lock{file: flock.New(path), path: path}, nil
}

func (l *Lock) Path() string {
	return l.path
}

// Lock waits until both the mutex and the file lock are held or ctx ends.
func (l *Lock) Lock(ctx context.Context) error {
	acquired := make(chan struct{})
	go func() {
		l.mu.Lock()
		close(acquired)
	}()
	select {
	case <-acquired:
	case <-ctx.Done():
		go func() {
			<-acquired
			l.mu.Unlock()
		}()
		return ctx.Err()
	}
	ok, err := l.file.TryLockContext(ctx, defaultRetryDelay)
	if err != nil || !ok {
		l.mu.Unlock()
		if err == nil {
			err = fmt.Errorf("lock %s not acquired", l.path)
		}
		return fmt.Errorf("failed to lock %s: %w", l.path, err)
	}
	return nil
}

func (l *Lock) Unlock() error {
	defer l.mu.Unlock()
	if err := l.file.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.path, err)
	}
	return nil
}
