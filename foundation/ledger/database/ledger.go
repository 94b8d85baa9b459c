package database

import (
	"encoding/binary"
	"fmt"
)

const (
	// Capacity is the maximum number of blocks the ledger holds.
	Capacity = 20

	// ImageSize is the size in bytes of the persisted ledger image.
	ImageSize = 4 + 4 + Capacity*BlockSize

	blocksOffset = 8
)

// Ledger is the in-memory form of the persisted image: a fixed array of
// blocks with the count and the latest hash kept alongside.
type Ledger struct {
	TotalBlocks uint32
	LatestHash  uint32
	Blocks      [Capacity]Block
}

// Encode returns the byte-exact image of the ledger.
func (l *Ledger) Encode() []byte {
	img := make([]byte, ImageSize)

	binary.LittleEndian.PutUint32(img[0:4], l.TotalBlocks)
	binary.LittleEndian.PutUint32(img[4:8], l.LatestHash)

	for i := 0; i < int(min(l.TotalBlocks, Capacity)); i++ {
		off := blocksOffset + i*BlockSize
		l.Blocks[i].encode(img[off : off+BlockSize])
	}

	return img
}

// DecodeLedger reads a ledger image. Images of the wrong size or with a block
// count outside 1..Capacity are rejected as corrupt.
func DecodeLedger(img []byte) (Ledger, error) {
	if len(img) != ImageSize {
		return Ledger{}, fmt.Errorf("%w: image is %d bytes, exp %d", ErrCorrupt, len(img), ImageSize)
	}

	l := Ledger{
		TotalBlocks: binary.LittleEndian.Uint32(img[0:4]),
		LatestHash:  binary.LittleEndian.Uint32(img[4:8]),
	}

	if l.TotalBlocks == 0 || l.TotalBlocks > Capacity {
		return Ledger{}, fmt.Errorf("%w: total blocks %d", ErrCorrupt, l.TotalBlocks)
	}

	for i := 0; i < int(l.TotalBlocks); i++ {
		off := blocksOffset + i*BlockSize
		l.Blocks[i] = decodeBlock(img[off : off+BlockSize])
	}

	return l, nil
}

// latest returns the most recent block. The ledger is never empty once
// constructed.
func (l *Ledger) latest() Block {
	if l.TotalBlocks == 0 {
		return Block{}
	}
	return l.Blocks[l.TotalBlocks-1]
}
