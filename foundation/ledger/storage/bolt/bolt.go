// Package bolt implements the ability to read and write the ledger image to
// a bbolt database. The image is stored byte for byte under a single key.
package bolt

import (
	"fmt"
	"io/fs"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	ledgerBucket = []byte("ledger")
	imageKey     = []byte("image")
)

// Bolt represents the storage implementation for keeping the ledger image in
// a bbolt file. This implements the database.Storage interface.
type Bolt struct {
	db *bolt.DB
}

// New opens the bbolt database at the specified path and makes sure the
// ledger bucket exists.
func New(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(ledgerBucket); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{db: db}, nil
}

// Close releases the bbolt database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Read returns a copy of the stored image.
func (b *Bolt) Read() ([]byte, error) {
	var image []byte

	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ledgerBucket).Get(imageKey)
		if data == nil {
			return fs.ErrNotExist
		}

		// The slice is only valid for the life of the transaction.
		image = append([]byte(nil), data...)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return image, nil
}

// Write replaces the stored image.
func (b *Bolt) Write(image []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ledgerBucket).Put(imageKey, image)
	})
}

// Remove deletes the stored image.
func (b *Bolt) Remove() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ledgerBucket).Delete(imageKey)
	})
}
