package database

import (
	"errors"
	"fmt"
)

// Set of error variables for the ledger.
var (
	ErrFull      = errors.New("ledger is full")
	ErrShutdown  = errors.New("system halted")
	ErrCorrupt   = errors.New("ledger image corrupt")
	ErrBatchSize = errors.New("invalid batch size")
	ErrNotFound  = errors.New("block not found")
)

// InvalidAtError is returned by Validate with the index of the first block
// that failed verification.
type InvalidAtError struct {
	Index  int
	Reason string
}

// Error implements the error interface.
func (e *InvalidAtError) Error() string {
	return fmt.Sprintf("ledger invalid at block index %d: %s", e.Index, e.Reason)
}

// InvalidAt returns the failing index if err is an InvalidAtError.
func InvalidAt(err error) (int, bool) {
	var iae *InvalidAtError
	if !errors.As(err, &iae) {
		return 0, false
	}
	return iae.Index, true
}
