// Package file implements the ability to read and write the ledger image to
// a single file on disk.
package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// File represents the storage implementation for keeping the ledger image in
// one file. Every write replaces the whole file. This implements the
// database.Storage interface.
type File struct {
	path string
}

// New constructs a File value for use, creating the parent directory when
// it does not exist.
func New(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	return &File{path: path}, nil
}

// Close in this implementation has nothing to do since the file is opened
// and closed on each operation.
func (f *File) Close() error {
	return nil
}

// Read returns the full contents of the ledger file.
func (f *File) Read() ([]byte, error) {
	return os.ReadFile(f.path)
}

// Write overwrites the ledger file with the specified image, truncating any
// previous content.
func (f *File) Write(image []byte) error {
	fd, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer fd.Close()

	if _, err := fd.Write(image); err != nil {
		return err
	}

	return fd.Sync()
}

// Remove deletes the ledger file. A missing file is not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Path returns the location of the ledger file.
func (f *File) Path() string {
	return f.path
}
