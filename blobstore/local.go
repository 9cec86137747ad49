package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hupe1980/contactbook/internal/fs"
)

const (
	lockFileName = "LOCK"
	tempSuffix   = ".tmp"
)

// ErrLocked is returned by Lock when another process holds the directory lock.
var ErrLocked = errors.New("blobstore: directory is locked by another process")

// LocalStore implements BlobStore using the local file system.
//
// Blob names use forward slashes and map to paths below the root directory.
// Put writes a temporary file, syncs it and renames it over the target.
type LocalStore struct {
	root string
	fsys fs.FileSystem
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem replaces the file system used by the store.
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) { s.fsys = fsys }
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string, optFns ...LocalOption) *LocalStore {
	s := &LocalStore{root: root, fsys: fs.Default}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Root returns the root directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(name string) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean == lockFileName || strings.HasSuffix(clean, tempSuffix) {
		return "", fmt.Errorf("blobstore: invalid blob name %q", name)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	f, err := s.fsys.OpenFile(p, os.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &localBlob{f: f, size: info.Size()}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) (err error) {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := s.fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, tmp, err := s.fsys.CreateTemp(dir, filepath.Base(p)+".*"+tempSuffix)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = s.fsys.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("blobstore: write %s: %w", name, err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("blobstore: sync %s: %w", name, err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = s.fsys.Rename(tmp, p); err != nil {
		return fmt.Errorf("blobstore: commit %s: %w", name, err)
	}

	// Persist the rename itself. Not every platform can sync a directory.
	if d, derr := s.fsys.OpenFile(dir, os.O_RDONLY, 0); derr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fsys.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns all blobs matching the prefix.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	if err := s.walk(ctx, "", func(name string) {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}); err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

func (s *LocalStore) walk(ctx context.Context, rel string, fn func(string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := s.fsys.ReadDir(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && rel == "" {
			return nil
		}
		return err
	}

	for _, e := range entries {
		name := path.Join(rel, e.Name())
		switch {
		case e.IsDir():
			if err := s.walk(ctx, name, fn); err != nil {
				return err
			}
		case name == lockFileName, strings.HasSuffix(name, tempSuffix):
		default:
			fn(name)
		}
	}
	return nil
}

type localBlob struct {
	f    fs.File
	size int64
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}
	return b.f.ReadAt(p, off)
}

func (b *localBlob) Close() error { return b.f.Close() }

func (b *localBlob) Size() int64 { return b.size }
