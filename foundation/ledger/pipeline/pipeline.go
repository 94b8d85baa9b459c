// Package pipeline batches submitted transactions into blocks. Transactions
// are held in a bounded queue and a single worker goroutine drains it into
// the ledger.
package pipeline

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardanlabs/lockbox/foundation/latch"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
)

const (
	// QueueCapacity is the number of transactions that can be pending.
	QueueCapacity = 10

	// BatchSize is the number of transactions that triggers a flush.
	BatchSize = database.TxPerBlock

	// FlushTimeout is how long the worker waits for the next transaction
	// before flushing a partial batch.
	FlushTimeout = time.Second
)

// ErrQueueFull is returned when the pending queue is at capacity.
var ErrQueueFull = errors.New("transaction queue full")

// BlockHandler is called by the worker after each block is added to the
// ledger.
type BlockHandler func(block database.Block)

// MiningHandler is called with the time spent appending each batch.
type MiningHandler func(d time.Duration)

// Config represents the configuration required to run the pipeline.
type Config struct {
	DB           *database.Database
	Latch        *latch.Latch
	Clock        func() uint32
	FlushTimeout time.Duration
	BlockHandler BlockHandler
	OnMined      MiningHandler
	EvHandler    database.EventHandler
}

// entry is a queued transaction tagged with the epoch it was submitted in.
type entry struct {
	tx    database.Transaction
	epoch uint64
}

// Pipeline manages the pending transactions and the worker that seals them.
// The gate is held while a batch is written to the ledger and while the
// epoch is advanced, so a truncate never interleaves with a flush.
type Pipeline struct {
	db           *database.Database
	latch        *latch.Latch
	clock        func() uint32
	flushTimeout time.Duration
	onBlock      BlockHandler
	onMined      MiningHandler
	ev           database.EventHandler

	gate     sync.Mutex
	queue    chan entry
	halt     chan database.Transaction
	haltOnce sync.Once
	halted   atomic.Bool
	epoch    atomic.Uint64

	wg   sync.WaitGroup
	shut chan struct{}
	once sync.Once
}

// Run constructs a pipeline and starts the worker. The function does not
// return until the worker is running.
func Run(cfg Config) *Pipeline {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	onBlock := cfg.BlockHandler
	if onBlock == nil {
		onBlock = func(database.Block) {}
	}

	onMined := cfg.OnMined
	if onMined == nil {
		onMined = func(time.Duration) {}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = func() uint32 { return 0 }
	}

	lt := cfg.Latch
	if lt == nil {
		lt = latch.New()
	}

	timeout := cfg.FlushTimeout
	if timeout <= 0 {
		timeout = FlushTimeout
	}

	p := Pipeline{
		db:           cfg.DB,
		latch:        lt,
		clock:        clock,
		flushTimeout: timeout,
		onBlock:      onBlock,
		onMined:      onMined,
		ev:           ev,
		queue:        make(chan entry, QueueCapacity),
		halt:         make(chan database.Transaction, 1),
		shut:         make(chan struct{}),
	}

	p.wg.Add(1)

	// We don't want to return until we know the worker is running.
	hasStarted := make(chan bool)

	go func() {
		defer p.wg.Done()
		hasStarted <- true
		p.workerOperations()
	}()

	<-hasStarted

	return &p
}

// Shutdown stops the worker after it flushes whatever is pending.
func (p *Pipeline) Shutdown() {
	p.ev("pipeline: shutdown: started")
	defer p.ev("pipeline: shutdown: completed")

	p.once.Do(func() {
		p.ev("pipeline: shutdown: terminate worker")
		close(p.shut)
	})
	p.wg.Wait()
}

// Submit constructs a transaction and adds it to the queue without waiting.
// A SystemShutdown transaction is exempt from the shutdown latch and is the
// last transaction the pipeline accepts.
func (p *Pipeline) Submit(kind database.Kind, actorID string, payload string) error {
	tx, truncated := database.NewTransaction(p.clock(), kind, actorID, payload)
	if truncated {
		p.ev("pipeline: submit: truncated: tx[%s]", tx)
	}

	if kind == database.KindSystemShutdown {
		return p.submitHalt(tx)
	}

	if p.latch.IsSet() || p.halted.Load() || p.isShutdown() {
		return database.ErrShutdown
	}

	select {
	case p.queue <- entry{tx: tx, epoch: p.epoch.Load()}:
		p.ev("pipeline: submit: queued: tx[%s]: pending[%d]", tx, len(p.queue))
		return nil
	default:
		p.ev("pipeline: submit: queue full: dropped: tx[%s]", tx)
		return ErrQueueFull
	}
}

// submitHalt hands the final transaction to the worker. Only the first one
// is accepted.
func (p *Pipeline) submitHalt(tx database.Transaction) error {
	accepted := false
	p.haltOnce.Do(func() {
		p.halted.Store(true)
		p.halt <- tx
		accepted = true
	})

	if !accepted {
		return database.ErrShutdown
	}

	p.ev("pipeline: submit: halt: tx[%s]", tx)
	return nil
}

// Len returns the number of pending transactions.
func (p *Pipeline) Len() int {
	return len(p.queue)
}

// Truncate drops every pending transaction including the partial batch held
// by the worker. It waits for a flush in progress to complete. It returns the
// number of queued transactions dropped.
func (p *Pipeline) Truncate() int {
	p.gate.Lock()
	defer p.gate.Unlock()

	p.epoch.Add(1)

	var n int
	for {
		select {
		case <-p.queue:
			n++
		default:
			p.ev("pipeline: truncate: dropped[%d]", n)
			return n
		}
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (p *Pipeline) isShutdown() bool {
	select {
	case <-p.shut:
		return true
	default:
		return false
	}
}
