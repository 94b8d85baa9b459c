// Package attr encodes and decodes the fixed shape payloads of the lockbox
// attributes and the sensor beacons.
package attr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
)

// ErrInvalidArgument is returned when a payload does not have the shape the
// attribute requires.
var ErrInvalidArgument = errors.New("invalid argument")

// Payload sizes of the attributes.
const (
	UsernameMaxLen   = database.MaxActorIDLen
	PasscodeLen      = access.PasscodeLen
	LockLen          = 1
	StatusLen        = 4
	BlockInfoLen     = 12
	SensorFeedLen    = 2
	SensorReadLen    = 8
	TamperControlLen = 1
)

// Username returns the username held by the payload. Trailing NUL padding is
// ignored.
func Username(b []byte) (string, error) {
	b = trimNUL(b)

	if len(b) == 0 || len(b) > UsernameMaxLen {
		return "", fmt.Errorf("%w: username is %d bytes, exp 1-%d", ErrInvalidArgument, len(b), UsernameMaxLen)
	}

	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: username is not utf-8", ErrInvalidArgument)
	}

	return string(b), nil
}

// Passcode returns the passcode held by the payload, which must be exactly
// PasscodeLen bytes.
func Passcode(b []byte) (string, error) {
	if len(b) != PasscodeLen {
		return "", fmt.Errorf("%w: passcode is %d bytes, exp %d", ErrInvalidArgument, len(b), PasscodeLen)
	}

	return string(b), nil
}

// SensorFeed returns the little endian reading held by the payload.
func SensorFeed(b []byte) (uint16, error) {
	if len(b) != SensorFeedLen {
		return 0, fmt.Errorf("%w: sensor feed is %d bytes, exp %d", ErrInvalidArgument, len(b), SensorFeedLen)
	}

	return binary.LittleEndian.Uint16(b), nil
}

// TamperControl reports whether the payload asks for a tamper shutdown.
func TamperControl(b []byte) (bool, error) {
	if len(b) != TamperControlLen {
		return false, fmt.Errorf("%w: tamper control is %d bytes, exp %d", ErrInvalidArgument, len(b), TamperControlLen)
	}

	return b[0] != 0, nil
}

// =============================================================================

// EncodeLock returns the lock status payload.
func EncodeLock(open bool) []byte {
	return []byte{boolByte(open)}
}

// EncodeStatus returns the access status payload: phase, failed attempts,
// locked and tamper.
func EncodeStatus(s access.State) []byte {
	return []byte{byte(s.Phase), s.FailedAttempts, boolByte(s.Locked), boolByte(s.Tamper)}
}

// EncodeBlockInfo returns the ledger payload: total blocks, latest hash and
// latest id as little endian u32 values.
func EncodeBlockInfo(s database.Stats) []byte {
	b := make([]byte, BlockInfoLen)
	binary.LittleEndian.PutUint32(b[0:4], s.TotalBlocks)
	binary.LittleEndian.PutUint32(b[4:8], s.LatestHash)
	binary.LittleEndian.PutUint32(b[8:12], s.LatestID)
	return b
}

// Reading is the last presence reading taken by the brain.
type Reading struct {
	Current   uint16 `json:"current"`
	Threshold uint16 `json:"threshold"`
	Timestamp uint32 `json:"timestamp"`
}

// EncodeSensor returns the sensor feed payload: current reading, threshold
// and timestamp, little endian.
func EncodeSensor(r Reading) []byte {
	b := make([]byte, SensorReadLen)
	binary.LittleEndian.PutUint16(b[0:2], r.Current)
	binary.LittleEndian.PutUint16(b[2:4], r.Threshold)
	binary.LittleEndian.PutUint32(b[4:8], r.Timestamp)
	return b
}

// EncodeTamperControl returns the tamper control payload.
func EncodeTamperControl(tamper bool) []byte {
	return []byte{boolByte(tamper)}
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func trimNUL(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}
