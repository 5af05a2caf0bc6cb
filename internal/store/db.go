package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"jobwatch-engine/internal/domain"
)

// DB keeps the store in a sqlite database. Backups are full database
// snapshots taken with VACUUM INTO.
type DB struct {
	Pool       *sql.DB
	Path       string
	BackupPath string
	lock       fileLock
}

func OpenDB(path, backupPath string) (*DB, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// reasonable defaults
	pool.SetMaxOpenConns(1) // sqlite typically wants 1 writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	// quick ping
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return &DB{Pool: pool, Path: path, BackupPath: backupPath, lock: newFileLock(path)}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	err := d.Pool.Close()
	if uerr := d.lock.unlock(); err == nil {
		err = uerr
	}
	return err
}

func (d *DB) Lock(ctx context.Context) error { return d.lock.lock(ctx) }

func (d *DB) Init(ctx context.Context) error {
	return Migrate(ctx, d.Pool)
}

func (d *DB) initialized(ctx context.Context) error {
	v, err := schemaVersion(ctx, d.Pool)
	if err != nil {
		return err
	}
	if v < schemaV1 {
		return fmt.Errorf("%w: %s (run `engine init` to create it)", ErrNotFound, d.Path)
	}
	return nil
}

func (d *DB) Load(ctx context.Context) (domain.Store, error) {
	if err := d.initialized(ctx); err != nil {
		return nil, err
	}
	return loadJobs(ctx, d.Pool)
}

// Save snapshots the current database to the backup path, then replaces
// every row in one transaction.
func (d *DB) Save(ctx context.Context, s domain.Store) error {
	if err := d.initialized(ctx); err != nil {
		return err
	}
	if d.BackupPath != "" {
		// VACUUM INTO refuses to overwrite.
		if err := os.Remove(d.BackupPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("backup store: %w", err)
		}
		if _, err := d.Pool.ExecContext(ctx, `VACUUM INTO ?;`, d.BackupPath); err != nil {
			return fmt.Errorf("backup store: %w", err)
		}
	}
	if err := replaceJobs(ctx, d.Pool, s); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	log.Printf("[store] saved jobs=%d path=%s", len(s), d.Path)
	return nil
}
