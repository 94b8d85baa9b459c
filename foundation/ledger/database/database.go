// Package database handles all the lower level support for maintaining the
// hash chained ledger in memory and keeping its byte image in storage.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/lockbox/foundation/latch"
)

// Genesis transaction values.
const (
	GenesisActor   = "system"
	GenesisPayload = "genesis"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for keeping the ledger image.
type Storage interface {
	Read() ([]byte, error)
	Write(image []byte) error
	Remove() error
	Close() error
}

// EventHandler defines a function that is called when events occur in the
// processing of the ledger.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to open the ledger.
type Config struct {
	Storage   Storage
	Latch     *latch.Latch
	Clock     func() uint32
	EvHandler EventHandler
}

// Stats summarizes the ledger for status reporting.
type Stats struct {
	TotalBlocks  uint32 `json:"total_blocks"`
	Capacity     uint32 `json:"capacity"`
	LatestHash   uint32 `json:"latest_hash"`
	LatestID     uint32 `json:"latest_id"`
	Transactions uint32 `json:"transactions"`
}

// Database manages the ledger. One lock protects the ledger and is held
// across the mining of a new block.
type Database struct {
	mu sync.RWMutex

	ledger  Ledger
	storage Storage
	latch   *latch.Latch
	clock   func() uint32
	ev      EventHandler
}

// New constructs a database by loading the ledger image from storage. When
// the image is absent or corrupt a genesis block is mined and persisted.
func New(cfg Config) (*Database, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = func() uint32 { return 0 }
	}

	lt := cfg.Latch
	if lt == nil {
		lt = latch.New()
	}

	db := Database{
		storage: cfg.Storage,
		latch:   lt,
		clock:   clock,
		ev:      ev,
	}

	if err := db.load(); err != nil {
		return nil, err
	}

	return &db, nil
}

// Close releases the storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// load reads the persisted image. A failed read of any kind is treated the
// same as an absent image.
func (db *Database) load() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	img, err := db.storage.Read()
	if err == nil {
		ledger, derr := DecodeLedger(img)
		if derr == nil {
			db.ledger = ledger
			db.ev("database: load: blocks[%d]: latest[%#08x]", ledger.TotalBlocks, ledger.LatestHash)
			return nil
		}
		err = derr
	}

	db.ev("database: load: image unusable, creating genesis: %s", err)

	return db.genesis()
}

// genesis resets the ledger to a single block holding a SystemStartup
// transaction and persists it. The caller must hold the lock.
func (db *Database) genesis() error {
	now := db.clock()
	tx, _ := NewTransaction(now, KindSystemStartup, GenesisActor, GenesisPayload)

	block, err := newBlock(1, now, 0, []Transaction{tx})
	if err != nil {
		return err
	}

	// The genesis block must always be sealed, it is not subject to the latch.
	if err := block.Mine(context.Background(), db.ev); err != nil {
		return err
	}

	db.ledger = Ledger{TotalBlocks: 1, LatestHash: block.BlockHash}
	db.ledger.Blocks[0] = block

	if err := db.persist(); err != nil {
		return fmt.Errorf("persist genesis: %w", err)
	}

	return nil
}

// =============================================================================

// Append mines a new block holding the transactions and adds it to the
// ledger. The shutdown latch is checked before and after mining and mining is
// abandoned as soon as the latch is set.
func (db *Database) Append(txs []Transaction) (Block, error) {
	if db.latch.IsSet() {
		return Block{}, ErrShutdown
	}

	return db.append(db.latch.Context(), txs)
}

// Seal is Append without the shutdown latch. It is reserved for recording the
// final batch of a halted system so the ledger can hold its own termination.
func (db *Database) Seal(ctx context.Context, txs []Transaction) (Block, error) {
	return db.append(ctx, txs)
}

func (db *Database) append(ctx context.Context, txs []Transaction) (Block, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.ledger.TotalBlocks >= Capacity {
		return Block{}, ErrFull
	}

	block, err := newBlock(db.ledger.TotalBlocks+1, db.clock(), db.ledger.LatestHash, txs)
	if err != nil {
		return Block{}, err
	}

	if err := block.Mine(ctx, db.ev); err != nil {
		return Block{}, fmt.Errorf("mining blk[%d]: %w", block.SequenceID, ErrShutdown)
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return Block{}, ErrShutdown
	}

	db.ledger.Blocks[db.ledger.TotalBlocks] = block
	db.ledger.TotalBlocks++
	db.ledger.LatestHash = block.BlockHash

	db.ev("database: append: blk[%d]: hash[%#08x]: trans[%d]", block.SequenceID, block.BlockHash, block.TxCount)

	// The in-memory ledger stays the source of truth if the write fails.
	if err := db.persist(); err != nil {
		db.ev("database: append: persist: ERROR: %s", err)
		return block, fmt.Errorf("persist blk[%d]: %w", block.SequenceID, err)
	}

	return block, nil
}

// Persist overwrites the stored image with the in-memory ledger.
func (db *Database) Persist() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.persist()
}

func (db *Database) persist() error {
	return db.storage.Write(db.ledger.Encode())
}

// Reset deletes the stored image and starts over from a new genesis block.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Remove(); err != nil {
		return fmt.Errorf("remove image: %w", err)
	}

	db.ev("database: reset: image removed")

	return db.genesis()
}

// =============================================================================

// Validate walks the chain and returns an InvalidAtError for the first block
// that fails verification. The ledger is never repaired.
func (db *Database) Validate() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	l := &db.ledger

	if l.TotalBlocks == 0 {
		return &InvalidAtError{Index: 0, Reason: "ledger has no genesis block"}
	}

	for i := 0; i < int(l.TotalBlocks); i++ {
		block := l.Blocks[i]

		if block.SequenceID != uint32(i+1) {
			return &InvalidAtError{Index: i, Reason: fmt.Sprintf("sequence id %d, exp %d", block.SequenceID, i+1)}
		}

		if err := block.validate(); err != nil {
			return &InvalidAtError{Index: i, Reason: err.Error()}
		}

		if i > 0 && block.PrevBlockHash != l.Blocks[i-1].BlockHash {
			return &InvalidAtError{Index: i, Reason: fmt.Sprintf("prev block hash %#08x, exp %#08x", block.PrevBlockHash, l.Blocks[i-1].BlockHash)}
		}
	}

	if last := l.latest(); l.LatestHash != last.BlockHash {
		return &InvalidAtError{Index: int(l.TotalBlocks) - 1, Reason: fmt.Sprintf("latest hash %#08x, exp %#08x", l.LatestHash, last.BlockHash)}
	}

	return nil
}

// =============================================================================

// Stats returns a summary of the ledger.
func (db *Database) Stats() Stats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var trans uint32
	for i := 0; i < int(db.ledger.TotalBlocks); i++ {
		trans += uint32(db.ledger.Blocks[i].TxCount)
	}

	return Stats{
		TotalBlocks:  db.ledger.TotalBlocks,
		Capacity:     Capacity,
		LatestHash:   db.ledger.LatestHash,
		LatestID:     db.ledger.latest().SequenceID,
		Transactions: trans,
	}
}

// Blocks returns a copy of the blocks in the ledger.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]Block, db.ledger.TotalBlocks)
	copy(out, db.ledger.Blocks[:db.ledger.TotalBlocks])
	return out
}

// Block returns the block with the specified sequence id.
func (db *Database) Block(sequenceID uint32) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if sequenceID == 0 || sequenceID > db.ledger.TotalBlocks {
		return Block{}, ErrNotFound
	}

	return db.ledger.Blocks[sequenceID-1], nil
}

// History returns every sealed transaction recorded for the actor, oldest
// first.
func (db *Database) History(actorID string) []Transaction {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []Transaction
	for i := 0; i < int(db.ledger.TotalBlocks); i++ {
		for _, tx := range db.ledger.Blocks[i].Trans() {
			if tx.ActorID == actorID {
				out = append(out, tx)
			}
		}
	}

	return out
}

// Image returns a copy of the byte image of the ledger.
func (db *Database) Image() []byte {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.ledger.Encode()
}

// IsNotFound reports whether err is the not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
