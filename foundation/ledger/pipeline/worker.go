package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/lockbox/foundation/ledger/database"
)

// workerOperations drains the queue into batches and appends them to the
// ledger. A batch is flushed when it reaches BatchSize or when no new
// transaction arrives within the flush timeout.
func (p *Pipeline) workerOperations() {
	p.ev("pipeline: workerOperations: G started")
	defer p.ev("pipeline: workerOperations: G completed")

	var batch, held []entry

	for {
		select {
		case <-p.shut:
			p.ev("pipeline: workerOperations: received shut signal")
			p.finalFlush(append(held, batch...), nil)
			return

		case tx := <-p.halt:
			p.ev("pipeline: workerOperations: received halt: tx[%s]", tx)
			p.finalFlush(append(held, batch...), &tx)
			return

		case e := <-p.queue:
			batch = append(batch, e)
			if len(batch) < BatchSize {
				continue
			}

		case <-time.After(p.flushTimeout):
			if len(batch) == 0 {
				continue
			}
		}

		// Once the latch is set the batch is kept for the final flush.
		if err := p.flush(batch); errors.Is(err, database.ErrShutdown) {
			held = append(held, batch...)
		}
		batch = nil
	}
}

// flush appends the current epoch's share of the batch to the ledger under
// the shutdown latch.
func (p *Pipeline) flush(batch []entry) error {
	p.gate.Lock()

	txs := p.current(batch)
	if len(txs) == 0 {
		p.gate.Unlock()
		return nil
	}

	start := time.Now()
	block, err := p.db.Append(txs)
	p.onMined(time.Since(start))
	p.gate.Unlock()

	p.report("flush", block, err)
	return err
}

// finalFlush drains what is left in the queue and seals it together with the
// pending transactions and the final transaction, exempt from the latch. The
// final transaction is always sealed last.
func (p *Pipeline) finalFlush(pending []entry, final *database.Transaction) {
	p.gate.Lock()
	defer p.gate.Unlock()

drain:
	for {
		select {
		case e := <-p.queue:
			pending = append(pending, e)
		default:
			break drain
		}
	}

	txs := p.current(pending)
	if final != nil {
		txs = append(txs, *final)
	}

	p.ev("pipeline: finalFlush: sealing trans[%d]", len(txs))

	for len(txs) > 0 {
		n := min(len(txs), BatchSize)

		block, err := p.db.Seal(context.Background(), txs[:n])
		p.report("finalFlush", block, err)
		if errors.Is(err, database.ErrFull) {
			return
		}

		txs = txs[n:]
	}
}

// current returns the transactions submitted since the last truncate. The
// caller must hold the gate.
func (p *Pipeline) current(entries []entry) []database.Transaction {
	epoch := p.epoch.Load()

	txs := make([]database.Transaction, 0, len(entries))
	for _, e := range entries {
		if e.epoch == epoch {
			txs = append(txs, e.tx)
		}
	}

	if dropped := len(entries) - len(txs); dropped > 0 {
		p.ev("pipeline: workerOperations: batch truncated: dropped[%d]", dropped)
	}

	return txs
}

// report logs the outcome of an append and fires the block handler when the
// block made it into the ledger.
func (p *Pipeline) report(op string, block database.Block, err error) {
	if block.SequenceID != 0 {
		p.onBlock(block)
	}

	switch {
	case err == nil:
		p.ev("pipeline: %s: blk[%d]: trans[%d]", op, block.SequenceID, block.TxCount)

	case errors.Is(err, database.ErrShutdown):
		p.ev("pipeline: %s: HALTED: batch held", op)

	case errors.Is(err, database.ErrFull):
		p.ev("pipeline: %s: LEDGER FULL: batch dropped", op)

	default:
		p.ev("pipeline: %s: ERROR: %s", op, err)
	}
}
