package ledgergrp

import (
	"github.com/ardanlabs/lockbox/business/sys/validate"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type stats struct {
	TotalBlocks  uint32 `json:"total_blocks"`
	Capacity     uint32 `json:"capacity"`
	LatestHash   string `json:"latest_hash"`
	LatestID     uint32 `json:"latest_id"`
	Transactions uint32 `json:"transactions"`
	Pending      int    `json:"pending"`
}

func toStats(s database.Stats, pending int) stats {
	return stats{
		TotalBlocks:  s.TotalBlocks,
		Capacity:     s.Capacity,
		LatestHash:   hexHash(s.LatestHash),
		LatestID:     s.LatestID,
		Transactions: s.Transactions,
		Pending:      pending,
	}
}

type tx struct {
	Timestamp     uint32        `json:"timestamp"`
	Kind          database.Kind `json:"kind"`
	ActorID       string        `json:"actor_id"`
	Payload       string        `json:"payload"`
	IntegrityHash string        `json:"integrity_hash"`
}

func toTx(t database.Transaction) tx {
	return tx{
		Timestamp:     t.Timestamp,
		Kind:          t.Kind,
		ActorID:       t.ActorID,
		Payload:       t.Payload,
		IntegrityHash: hexHash(t.IntegrityHash),
	}
}

func toTxs(trans []database.Transaction) []tx {
	out := make([]tx, len(trans))
	for i, t := range trans {
		out[i] = toTx(t)
	}
	return out
}

type block struct {
	SequenceID    uint32 `json:"sequence_id"`
	Timestamp     uint32 `json:"timestamp"`
	PrevBlockHash string `json:"prev_block_hash"`
	ProofNonce    uint32 `json:"proof_nonce"`
	BlockHash     string `json:"block_hash"`
	Transactions  []tx   `json:"transactions"`
}

func toBlock(b database.Block) block {
	return block{
		SequenceID:    b.SequenceID,
		Timestamp:     b.Timestamp,
		PrevBlockHash: hexHash(b.PrevBlockHash),
		ProofNonce:    b.ProofNonce,
		BlockHash:     hexHash(b.BlockHash),
		Transactions:  toTxs(b.Trans()),
	}
}

type validation struct {
	Valid bool `json:"valid"`
}

type reset struct {
	Confirm string `json:"confirm" validate:"required,eq=RESET"`
}

// Validate checks the data in the model is considered clean.
func (r reset) Validate() error {
	return validate.Check(r)
}

type result struct {
	Status string `json:"status"`
}

func hexHash(h uint32) string {
	return hexutil.EncodeUint64(uint64(h))
}
