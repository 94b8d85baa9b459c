package database

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/ardanlabs/lockbox/foundation/ledger/hash"
)

// Field widths of the on-device transaction record. Each string field holds
// one byte for the NUL terminator.
const (
	ActorIDSize = 16
	PayloadSize = 32

	MaxActorIDLen = ActorIDSize - 1
	MaxPayloadLen = PayloadSize - 1

	// TransactionSize is the encoded size of a transaction in bytes.
	TransactionSize = 4 + 4 + ActorIDSize + PayloadSize + 4

	// integrityOffset is where the integrity hash lives in the encoding. The
	// hash covers every byte before it.
	integrityOffset = TransactionSize - 4
)

// Kind represents the type of security event a transaction records.
type Kind uint32

// Set of transaction kinds. The numeric values are part of the persisted
// layout and must not be reordered.
const (
	KindUserAdded Kind = iota
	KindAccessGranted
	KindAccessDenied
	KindPresenceDetected
	KindPasscodeGenerated
	KindPasscodeVerified
	KindPasscodeFailed
	KindTamperDetected
	KindSystemLocked
	KindSystemStartup
	KindSystemShutdown
)

var kindNames = map[Kind]string{
	KindUserAdded:         "USER_ADDED",
	KindAccessGranted:     "ACCESS_GRANTED",
	KindAccessDenied:      "ACCESS_DENIED",
	KindPresenceDetected:  "PRESENCE_DETECTED",
	KindPasscodeGenerated: "PASSCODE_GENERATED",
	KindPasscodeVerified:  "PASSCODE_VERIFIED",
	KindPasscodeFailed:    "PASSCODE_FAILED",
	KindTamperDetected:    "TAMPER_DETECTED",
	KindSystemLocked:      "SYSTEM_LOCKED",
	KindSystemStartup:     "SYSTEM_STARTUP",
	KindSystemShutdown:    "SYSTEM_SHUTDOWN",
}

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	if s, exists := kindNames[k]; exists {
		return s
	}
	return fmt.Sprintf("KIND(%d)", uint32(k))
}

// MarshalText implements the encoding.TextMarshaler interface.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// =============================================================================

// Transaction is a single security event. It is immutable once sealed into
// a block.
type Transaction struct {
	Timestamp     uint32 `json:"timestamp"`
	Kind          Kind   `json:"kind"`
	ActorID       string `json:"actor_id"`
	Payload       string `json:"payload"`
	IntegrityHash uint32 `json:"integrity_hash"`
}

// NewTransaction constructs a transaction, truncating the actor id and payload
// to their field widths and computing the integrity hash. The returned flag
// reports whether any truncation took place so callers can log it.
func NewTransaction(timestamp uint32, kind Kind, actorID string, payload string) (Transaction, bool) {
	actor, at := Truncate(actorID, MaxActorIDLen)
	data, pt := Truncate(payload, MaxPayloadLen)

	tx := Transaction{
		Timestamp: timestamp,
		Kind:      kind,
		ActorID:   actor,
		Payload:   data,
	}
	tx.IntegrityHash = tx.ComputeHash()

	return tx, at || pt
}

// ComputeHash recomputes the integrity hash over every field that precedes
// it in the encoded form.
func (tx Transaction) ComputeHash() uint32 {
	var buf [TransactionSize]byte
	tx.encode(buf[:])
	return hash.Mix(buf[:integrityOffset])
}

// Valid reports whether the stored integrity hash matches the fields.
func (tx Transaction) Valid() bool {
	return tx.IntegrityHash == tx.ComputeHash()
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s:%s:%q", tx.Kind, tx.ActorID, tx.Payload)
}

// encode writes the fixed layout of the transaction into b, which must be at
// least TransactionSize bytes.
func (tx Transaction) encode(b []byte) {
	clear(b[:TransactionSize])

	binary.LittleEndian.PutUint32(b[0:4], tx.Timestamp)
	binary.LittleEndian.PutUint32(b[4:8], uint32(tx.Kind))
	copy(b[8:8+MaxActorIDLen], tx.ActorID)
	copy(b[24:24+MaxPayloadLen], tx.Payload)
	binary.LittleEndian.PutUint32(b[integrityOffset:TransactionSize], tx.IntegrityHash)
}

// decodeTransaction reads a transaction from its fixed layout.
func decodeTransaction(b []byte) Transaction {
	return Transaction{
		Timestamp:     binary.LittleEndian.Uint32(b[0:4]),
		Kind:          Kind(binary.LittleEndian.Uint32(b[4:8])),
		ActorID:       cString(b[8 : 8+ActorIDSize]),
		Payload:       cString(b[24 : 24+PayloadSize]),
		IntegrityHash: binary.LittleEndian.Uint32(b[integrityOffset:TransactionSize]),
	}
}

// =============================================================================

// Truncate bounds s to at most max bytes without splitting a UTF-8 sequence.
// Embedded NUL bytes end the string since the field is NUL terminated on disk.
func Truncate(s string, max int) (string, bool) {
	truncated := false
	if i := bytes.IndexByte([]byte(s), 0); i >= 0 {
		s = s[:i]
		truncated = true
	}

	if len(s) <= max {
		return s, truncated
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut], true
}

// cString returns the bytes up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
