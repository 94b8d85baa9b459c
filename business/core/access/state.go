package access

import "fmt"

// Phase represents where the access state machine is in the presence,
// credential and unlock sequence.
type Phase uint8

// Set of phases. The numeric values are reported to peers and must not be
// reordered.
const (
	PhaseReady Phase = iota
	PhasePresenceDetected
	PhaseWaitingPasscode
	PhaseLocked
	PhaseShutdown
)

var phaseNames = map[Phase]string{
	PhaseReady:            "READY",
	PhasePresenceDetected: "PRESENCE_DETECTED",
	PhaseWaitingPasscode:  "WAITING_PASSCODE",
	PhaseLocked:           "LOCKED",
	PhaseShutdown:         "SHUTDOWN",
}

// String implements the fmt.Stringer interface.
func (p Phase) String() string {
	if s, exists := phaseNames[p]; exists {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(p))
}

// MarshalText implements the encoding.TextMarshaler interface.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a snapshot of the access state machine.
type State struct {
	Phase          Phase  `json:"phase"`
	ActiveUser     string `json:"active_user"`
	FailedAttempts uint8  `json:"failed_attempts"`
	Locked         bool   `json:"locked"`
	Tamper         bool   `json:"tamper"`
	Shutdown       bool   `json:"shutdown"`
	LockOpen       bool   `json:"lock_open"`
	Passcodes      int    `json:"passcodes"`
}
