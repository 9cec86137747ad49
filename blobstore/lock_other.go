//go:build !unix

package blobstore

import (
	"io"
	"os"
	"path/filepath"
)

// Lock creates the lock file but does not lock it on this platform.
func (s *LocalStore) Lock() (io.Closer, error) {
	if err := s.fsys.MkdirAll(s.root, 0o755); err != nil {
		return nil, err
	}
	return s.fsys.OpenFile(filepath.Join(s.root, lockFileName), os.O_CREATE|os.O_RDWR, 0o644)
}
