// Package filesystem provides the file operations the metadata store and the
// integrity service run against, with OS errors mapped to a closed set of kinds.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Kind classifies a filesystem failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindPermission
	KindExists
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermission:
		return "permission denied"
	case KindExists:
		return "already exists"
	case KindIO:
		return "i/o error"
	default:
		return "unknown"
	}
}

// Error is returned by every FS operation that fails.
type Error struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err, or KindUnknown when err did not come from an FS.
func KindOf(err error) Kind {
	var fsErr *Error
	if errors.As(err, &fsErr) {
		return fsErr.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a KindNotFound failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// FS is the set of operations the store needs. Paths are OS paths.
type FS interface {
	ReadFile(path string) ([]byte, error)
	// WriteFile creates or truncates path and syncs the content to disk.
	WriteFile(path string, data []byte, perm os.FileMode) error
	// CreateFile is WriteFile that fails with KindExists when path already exists.
	CreateFile(path string, data []byte, perm os.FileMode) error
	Rename(oldPath, newPath string) error
	Remove(path string) error
	// ListFiles returns the names of the regular files directly inside dir,
	// including symlinks that resolve to regular files, sorted.
	ListFiles(dir string) ([]string, error)
	MkdirAll(dir string, perm os.FileMode) error
}

// OS is the FS backed by the host filesystem.
type OS struct{}

var _ FS = OS{}

func (OS) ReadFile(path string) ([]byte, error) {
	//nolint:gosec // G304: path is built by the store from its own directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrap("read", path, err)
	}
	return data, nil
}

func (OS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return writeFile(path, data, perm, os.O_TRUNC)
}

func (OS) CreateFile(path string, data []byte, perm os.FileMode) error {
	return writeFile(path, data, perm, os.O_EXCL)
}

func writeFile(path string, data []byte, perm os.FileMode, mode int) error {
	//nolint:gosec // G304: path is built by the store from its own directory
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|mode, perm)
	if err != nil {
		return wrap("write", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return wrap("write", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return wrap("sync", path, err)
	}
	if err := f.Close(); err != nil {
		return wrap("close", path, err)
	}
	return nil
}

func (OS) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return wrap("rename", oldPath, err)
	}
	// Best-effort: make the rename itself durable.
	if dir, err := os.Open(filepath.Dir(newPath)); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}
	return nil
}

// Remove deletes path. A missing path is not an error.
func (OS) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return wrap("remove", path, err)
	}
	return nil
}

func (OS) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, wrap("list", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch {
		case entry.Type().IsRegular():
		case entry.Type()&fs.ModeSymlink != 0:
			info, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		default:
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (OS) MkdirAll(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil {
		return wrap("mkdir", dir, err)
	}
	return nil
}

func wrap(op, path string, err error) error {
	return &Error{Op: op, Path: path, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	case errors.Is(err, fs.ErrExist):
		return KindExists
	default:
		return KindIO
	}
}
