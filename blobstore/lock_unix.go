//go:build unix

package blobstore

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock takes an exclusive advisory lock on the store directory, so only one
// process serves a given snapshot directory. Close the returned handle to
// release it.
func (s *LocalStore) Lock() (io.Closer, error) {
	if err := s.fsys.MkdirAll(s.root, 0o755); err != nil {
		return nil, err
	}

	f, err := s.fsys.OpenFile(filepath.Join(s.root, lockFileName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, err
	}
	return &dirLock{f: f}, nil
}

type dirLock struct {
	f interface {
		io.Closer
		Fd() uintptr
	}
}

func (l *dirLock) Close() error {
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	return l.f.Close()
}
