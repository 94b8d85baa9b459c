package database

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/ardanlabs/lockbox/foundation/ledger/hash"
)

const (
	// TxPerBlock is the maximum number of transactions sealed in one block.
	TxPerBlock = 3

	// Difficulty is the ceiling a block digest must be at or under. The top
	// 16 bits of the digest must be zero.
	Difficulty uint32 = 0x0000FFFF

	// BlockSize is the encoded size of a block in bytes.
	BlockSize = 4 + 4 + 4 + 4 + 2 + 2 + TxPerBlock*TransactionSize + 4

	// digestSize is the number of leading bytes covered by the block hash.
	digestSize = BlockSize - 4

	nonceOffset = 12
	txOffset    = 20
)

// Block is a sealed group of up to TxPerBlock transactions linked to the
// block before it.
type Block struct {
	SequenceID    uint32                  `json:"sequence_id"`
	Timestamp     uint32                  `json:"timestamp"`
	PrevBlockHash uint32                  `json:"prev_block_hash"`
	ProofNonce    uint32                  `json:"proof_nonce"`
	TxCount       uint16                  `json:"tx_count"`
	Transactions  [TxPerBlock]Transaction `json:"-"`
	BlockHash     uint32                  `json:"block_hash"`
}

// newBlock constructs an unsealed block holding the specified transactions.
func newBlock(sequenceID uint32, timestamp uint32, prevBlockHash uint32, txs []Transaction) (Block, error) {
	if len(txs) == 0 || len(txs) > TxPerBlock {
		return Block{}, fmt.Errorf("%w: batch of %d transactions", ErrBatchSize, len(txs))
	}

	b := Block{
		SequenceID:    sequenceID,
		Timestamp:     timestamp,
		PrevBlockHash: prevBlockHash,
		TxCount:       uint16(len(txs)),
	}
	copy(b.Transactions[:], txs)

	return b, nil
}

// Trans returns the transactions held by the block.
func (b Block) Trans() []Transaction {
	n := min(int(b.TxCount), TxPerBlock)
	out := make([]Transaction, n)
	copy(out, b.Transactions[:n])
	return out
}

// Digest returns the mixing hash over the block excluding the block hash.
func (b Block) Digest() uint32 {
	var buf [BlockSize]byte
	b.encode(buf[:])
	return hash.Mix(buf[:digestSize])
}

// Mine performs the proof of work for the block. The nonce starts at 1 and is
// incremented until the digest is at or under the difficulty ceiling. The
// context is checked on every attempt and the block is left unsealed if it
// is cancelled. Pointer semantics are used since the nonce is discovered.
func (b *Block) Mine(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: Mine: MINING: started: blk[%d]", b.SequenceID)
	defer ev("database: Mine: MINING: completed: blk[%d]", b.SequenceID)

	for _, tx := range b.Trans() {
		ev("database: Mine: MINING: tx[%s]", tx)
	}

	// Encode once and only rewrite the nonce on each attempt.
	var buf [BlockSize]byte
	b.encode(buf[:])

	var attempts uint64
	for nonce := uint32(1); ; nonce++ {
		attempts++

		if ctx.Err() != nil {
			ev("database: Mine: MINING: CANCELLED: attempts[%d]", attempts)
			b.ProofNonce = 0
			b.BlockHash = 0
			return ctx.Err()
		}

		binary.LittleEndian.PutUint32(buf[nonceOffset:nonceOffset+4], nonce)
		digest := hash.Mix(buf[:digestSize])
		if !hash.Solved(digest, Difficulty) {
			continue
		}

		b.ProofNonce = nonce
		b.BlockHash = digest

		ev("database: Mine: MINING: SOLVED: prevBlk[%#08x]: newBlk[%#08x]: attempts[%d]", b.PrevBlockHash, digest, attempts)
		return nil
	}
}

// validate checks the block on its own: the stored hash must re-derive,
// satisfy the difficulty and every transaction must carry a valid integrity
// hash.
func (b Block) validate() error {
	if b.TxCount > TxPerBlock {
		return fmt.Errorf("tx count %d exceeds %d", b.TxCount, TxPerBlock)
	}

	digest := b.Digest()
	if digest != b.BlockHash {
		return fmt.Errorf("block hash mismatch, got %#08x, exp %#08x", b.BlockHash, digest)
	}

	if !hash.Solved(digest, Difficulty) {
		return fmt.Errorf("block hash %#08x above difficulty %#08x", digest, Difficulty)
	}

	for i, tx := range b.Trans() {
		if !tx.Valid() {
			return fmt.Errorf("transaction %d integrity hash mismatch", i)
		}
	}

	return nil
}

// encode writes the fixed layout of the block into b, which must be at least
// BlockSize bytes.
func (b Block) encode(buf []byte) {
	clear(buf[:BlockSize])

	binary.LittleEndian.PutUint32(buf[0:4], b.SequenceID)
	binary.LittleEndian.PutUint32(buf[4:8], b.Timestamp)
	binary.LittleEndian.PutUint32(buf[8:12], b.PrevBlockHash)
	binary.LittleEndian.PutUint32(buf[nonceOffset:nonceOffset+4], b.ProofNonce)
	binary.LittleEndian.PutUint16(buf[16:18], b.TxCount)

	// Unused transaction slots stay zeroed so the image is reproducible.
	for i := 0; i < int(min(b.TxCount, TxPerBlock)); i++ {
		off := txOffset + i*TransactionSize
		b.Transactions[i].encode(buf[off : off+TransactionSize])
	}

	binary.LittleEndian.PutUint32(buf[digestSize:BlockSize], b.BlockHash)
}

// decodeBlock reads a block from its fixed layout.
func decodeBlock(buf []byte) Block {
	b := Block{
		SequenceID:    binary.LittleEndian.Uint32(buf[0:4]),
		Timestamp:     binary.LittleEndian.Uint32(buf[4:8]),
		PrevBlockHash: binary.LittleEndian.Uint32(buf[8:12]),
		ProofNonce:    binary.LittleEndian.Uint32(buf[nonceOffset : nonceOffset+4]),
		TxCount:       binary.LittleEndian.Uint16(buf[16:18]),
		BlockHash:     binary.LittleEndian.Uint32(buf[digestSize:BlockSize]),
	}

	for i := range TxPerBlock {
		off := txOffset + i*TransactionSize
		b.Transactions[i] = decodeTransaction(buf[off : off+TransactionSize])
	}

	return b
}
