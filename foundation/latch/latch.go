// Package latch provides a one-way shutdown flag that doubles as a
// cancellation token for long running work such as mining.
package latch

import (
	"context"
	"sync"
	"sync/atomic"
)

// Latch is a flag that can only ever move from open to set. Once set it stays
// set for the life of the process.
type Latch struct {
	set    atomic.Bool
	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
	reason atomic.Value
}

// New constructs an open latch.
func New() *Latch {
	ctx, cancel := context.WithCancel(context.Background())
	return &Latch{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Set latches the flag. It reports true only for the call that actually
// moved the latch, so callers can guard one-time work on the result.
func (l *Latch) Set(reason string) bool {
	first := false
	l.once.Do(func() {
		l.reason.Store(reason)
		l.set.Store(true)
		l.cancel()
		first = true
	})
	return first
}

// IsSet reports whether the latch has been set.
func (l *Latch) IsSet() bool {
	return l.set.Load()
}

// Reason returns the reason recorded by the call that set the latch.
func (l *Latch) Reason() string {
	r, _ := l.reason.Load().(string)
	return r
}

// Done returns a channel that is closed when the latch is set.
func (l *Latch) Done() <-chan struct{} {
	return l.ctx.Done()
}

// Context returns a context that is cancelled when the latch is set.
func (l *Latch) Context() context.Context {
	return l.ctx
}
