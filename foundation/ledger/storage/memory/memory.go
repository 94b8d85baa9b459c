// Package memory implements the ability to read and write the ledger image
// to memory.
package memory

import (
	"io/fs"
	"sync"
)

// Memory represents the storage implementation for keeping the ledger image
// in memory. This implements the database.Storage interface.
type Memory struct {
	mu     sync.RWMutex
	image  []byte
	writes int
	err    error
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// NewWithImage constructs a Memory value holding a copy of the image.
func NewWithImage(image []byte) *Memory {
	return &Memory{image: append([]byte(nil), image...)}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Read returns a copy of the stored image.
func (m *Memory) Read() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.image == nil {
		return nil, fs.ErrNotExist
	}

	return append([]byte(nil), m.image...), nil
}

// Write replaces the stored image with a copy of the specified image.
func (m *Memory) Write(image []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.image = append([]byte(nil), image...)
	m.writes++

	return nil
}

// Remove clears out the stored image.
func (m *Memory) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.image = nil
	return nil
}

// Writes returns the number of successful writes.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writes
}

// FailWrites makes every following write return err. A nil err restores
// normal behavior.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}
