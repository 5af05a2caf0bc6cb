// Package store persists the posting store between runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
)

var (
	// ErrNotFound means the store has never been initialized.
	ErrNotFound = errors.New("store not found")
	// ErrLocked means another process holds the store.
	ErrLocked = errors.New("store is locked by another process")
)

// Persister loads and saves a whole store generation at a time. Save keeps
// the previous generation at the backup location.
type Persister interface {
	Load(ctx context.Context) (domain.Store, error)
	Save(ctx context.Context, s domain.Store) error
	// Init creates an empty store if none exists.
	Init(ctx context.Context) error
	// Lock claims the store for this process until Close.
	Lock(ctx context.Context) error
	Close() error
}

// Open picks the backend configured in cfg.
func Open(cfg config.Config) (Persister, error) {
	path, backup := cfg.StorePath(), cfg.BackupPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store dir: %w", err)
	}
	switch cfg.Storage.Driver {
	case config.DriverYAML, "":
		return NewFileStore(path, backup), nil
	case config.DriverSQLite:
		return OpenDB(path, backup)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// lockRetry is how often a contended lock is retried.
const lockRetry = 100 * time.Millisecond

// fileLock guards a store path across processes with an adjacent .lock file.
type fileLock struct {
	fl *flock.Flock
}

func newFileLock(path string) fileLock {
	return fileLock{fl: flock.New(path + ".lock")}
}

func (l fileLock) lock(ctx context.Context) error {
	ok, err := l.fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s", ErrLocked, l.fl.Path())
		}
		return fmt.Errorf("lock %s: %w", l.fl.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, l.fl.Path())
	}
	return nil
}

func (l fileLock) unlock() error {
	if !l.fl.Locked() {
		return nil
	}
	return l.fl.Unlock()
}
