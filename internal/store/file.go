package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"jobwatch-engine/internal/domain"
)

// FileStore keeps the store as one YAML document mapping id to job.
type FileStore struct {
	Path       string
	BackupPath string
	lock       fileLock
}

func NewFileStore(path, backupPath string) *FileStore {
	return &FileStore{Path: path, BackupPath: backupPath, lock: newFileLock(path)}
}

func (f *FileStore) Load(ctx context.Context) (domain.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (run `engine init` to create it)", ErrNotFound, f.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	return decodeYAML(b, f.Path)
}

func decodeYAML(b []byte, path string) (domain.Store, error) {
	s := domain.Store{}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	if s == nil {
		s = domain.Store{}
	}
	for id, j := range s {
		if j.ID == "" {
			j.ID = id
			s[id] = j
		} else if j.ID != id {
			return nil, fmt.Errorf("parse store %s: key %q holds job %q", path, id, j.ID)
		}
	}
	return s, nil
}

// LoadBackup reads the previous generation.
func (f *FileStore) LoadBackup() (domain.Store, error) {
	b, err := os.ReadFile(f.BackupPath)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	return decodeYAML(b, f.BackupPath)
}

// Save copies the current file to the backup path and then replaces the
// current file through a temp file and rename. A crash between the two
// steps can cost the newest generation; the backup survives.
func (f *FileStore) Save(ctx context.Context, s domain.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(f.Path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s (run `engine init` to create it)", ErrNotFound, f.Path)
	}
	return f.write(s)
}

func (f *FileStore) write(s domain.Store) error {
	if s == nil {
		s = domain.Store{}
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	if err := copyFile(f.Path, f.BackupPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("backup store: %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace store: %w", err)
	}
	log.Printf("[store] saved jobs=%d path=%s", len(s), f.Path)
	return nil
}

func (f *FileStore) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(f.Path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	log.Printf("[store] creating empty store path=%s", f.Path)
	return f.write(domain.Store{})
}

func (f *FileStore) Lock(ctx context.Context) error { return f.lock.lock(ctx) }

func (f *FileStore) Close() error { return f.lock.unlock() }

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
