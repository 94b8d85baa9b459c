// Package actuator provides the lock actuator. The servo is simulated: the
// position is tracked in memory and every move is reported to the event
// handler with the pulse width the hardware would be driven with.
package actuator

import (
	"sync/atomic"
	"time"
)

// Pulse widths for a standard servo driven at 50Hz.
const (
	OpenPulse  = 2 * time.Millisecond
	ClosePulse = 1 * time.Millisecond
	Period     = 20 * time.Millisecond
)

// EventHandler defines a function that is called when the servo moves.
type EventHandler func(v string, args ...any)

// Servo represents a lock driven by a servo. The zero value is not usable,
// construct with New.
type Servo struct {
	open  atomic.Bool
	moves atomic.Uint64
	ev    EventHandler
}

// New constructs a servo and moves it to the closed position.
func New(evHandler EventHandler) *Servo {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	s := Servo{ev: ev}
	s.Close()

	return &s
}

// Open moves the servo to the open position.
func (s *Servo) Open() {
	s.set(true)
}

// Close moves the servo to the closed position.
func (s *Servo) Close() {
	s.set(false)
}

// IsOpen reports whether the servo is in the open position.
func (s *Servo) IsOpen() bool {
	return s.open.Load()
}

// Moves returns the number of times the servo has been driven.
func (s *Servo) Moves() uint64 {
	return s.moves.Load()
}

func (s *Servo) set(open bool) {
	pulse, pos := ClosePulse, "CLOSED"
	if open {
		pulse, pos = OpenPulse, "OPEN"
	}

	s.open.Store(open)
	s.moves.Add(1)

	s.ev("actuator: servo: moved to %s: pulse[%s]: period[%s]", pos, pulse, Period)
}
