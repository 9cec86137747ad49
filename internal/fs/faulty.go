package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInjected is the error returned by a fault without its own Err.
var ErrInjected = errors.New("fs: injected fault")

// Fault defines specific failure behavior.
type Fault struct {
	FailAfterBytes int64 // Fail writes after this many bytes. -1 disables.
	FailOnSync     bool
	FailOnRename   bool
	Err            error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS FileSystem

	mu    sync.Mutex
	rules map[string]Fault
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{FS: fs, rules: make(map[string]Fault)}
}

// AddRule fails operations on files whose base name contains pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// ClearRules removes every rule.
func (f *FaultyFS) ClearRules() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.rules)
}

func (f *FaultyFS) match(name string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := filepath.Base(name)
	for pattern, rule := range f.rules {
		if strings.Contains(base, pattern) {
			return rule, true
		}
	}
	return Fault{FailAfterBytes: -1}, false
}

func (f *FaultyFS) wrap(file File, name string) File {
	fault, ok := f.match(name)
	if !ok {
		return file
	}
	return &faultyFile{File: file, fault: fault}
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f.wrap(file, name), nil
}

func (f *FaultyFS) CreateTemp(dir, pattern string) (File, string, error) {
	file, name, err := f.FS.CreateTemp(dir, pattern)
	if err != nil {
		return nil, "", err
	}
	return f.wrap(file, name), name, nil
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if fault, ok := f.match(newpath); ok && fault.FailOnRename {
		return fault.err()
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Remove(name string) error                     { return f.FS.Remove(name) }
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error { return f.FS.MkdirAll(path, perm) }
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error)   { return f.FS.ReadDir(name) }

type faultyFile struct {
	File
	fault   Fault
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, ff.fault.err()
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.err()
	}
	return ff.File.Sync()
}
