package access

import (
	"fmt"
	"time"
)

// TableCapacity is the number of users that can hold an issued passcode at
// the same time.
const TableCapacity = 10

// PasscodeLen is the number of digits in a passcode.
const PasscodeLen = 6

// GeneratorFunc produces a passcode for the user at the specified uptime.
type GeneratorFunc func(uptime time.Duration, userID string) string

// GeneratePasscode derives a six digit passcode from the uptime, perturbed by
// the first byte of the user id. This is not a secure random source.
func GeneratePasscode(uptime time.Duration, userID string) string {
	seed := uint32(uptime.Milliseconds())*1103515245 + 12345
	if len(userID) > 0 {
		seed += uint32(userID[0])
	}

	return fmt.Sprintf("%06d", seed%1_000_000)
}

// =============================================================================

type passcodeEntry struct {
	userID string
	code   string
	issued time.Duration
}

// PasscodeTable holds one issued passcode per user. Entries expire after the
// ttl and are purged lazily on every lookup and insert. The table is not safe
// for concurrent use, the Core serializes access to it.
type PasscodeTable struct {
	entries []passcodeEntry
	ttl     time.Duration
}

// NewPasscodeTable constructs a table whose entries live for ttl.
func NewPasscodeTable(ttl time.Duration) *PasscodeTable {
	return &PasscodeTable{
		entries: make([]passcodeEntry, 0, TableCapacity),
		ttl:     ttl,
	}
}

// Insert stores the passcode for the user, replacing any previous one. When
// the table is full the oldest entry is evicted and its user returned.
func (pt *PasscodeTable) Insert(userID string, code string, now time.Duration) (evicted string) {
	pt.Purge(now)

	for i := range pt.entries {
		if pt.entries[i].userID == userID {
			pt.entries[i].code = code
			pt.entries[i].issued = now
			return ""
		}
	}

	if len(pt.entries) >= TableCapacity {
		oldest := 0
		for i := range pt.entries {
			if pt.entries[i].issued < pt.entries[oldest].issued {
				oldest = i
			}
		}
		evicted = pt.entries[oldest].userID
		pt.remove(oldest)
	}

	pt.entries = append(pt.entries, passcodeEntry{userID: userID, code: code, issued: now})

	return evicted
}

// Lookup returns the live passcode for the user.
func (pt *PasscodeTable) Lookup(userID string, now time.Duration) (string, bool) {
	pt.Purge(now)

	for _, e := range pt.entries {
		if e.userID == userID {
			return e.code, true
		}
	}

	return "", false
}

// Remove deletes the entry for the user.
func (pt *PasscodeTable) Remove(userID string) {
	for i := range pt.entries {
		if pt.entries[i].userID == userID {
			pt.remove(i)
			return
		}
	}
}

// Purge deletes every expired entry and returns how many were deleted.
func (pt *PasscodeTable) Purge(now time.Duration) int {
	live := pt.entries[:0]
	for _, e := range pt.entries {
		if now-e.issued < pt.ttl {
			live = append(live, e)
		}
	}

	n := len(pt.entries) - len(live)
	clear(pt.entries[len(live):])
	pt.entries = live

	return n
}

// Clear deletes every entry.
func (pt *PasscodeTable) Clear() {
	clear(pt.entries)
	pt.entries = pt.entries[:0]
}

// Len returns the number of entries, including expired ones not yet purged.
func (pt *PasscodeTable) Len() int {
	return len(pt.entries)
}

func (pt *PasscodeTable) remove(i int) {
	pt.entries = append(pt.entries[:i], pt.entries[i+1:]...)
}
