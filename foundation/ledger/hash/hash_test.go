package hash_test

import (
	"testing"

	"github.com/ardanlabs/lockbox/foundation/ledger/hash"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// mix is the reference fold written out by hand.
func mix(data []byte) uint32 {
	h := uint32(0x811c9dc5)
	for _, b := range data {
		h ^= uint32(b)
		h *= 0x01000193
	}
	return h
}

func Test_Mix(t *testing.T) {
	type table struct {
		name string
		data []byte
		exp  uint32
	}

	tt := []table{
		{name: "empty", data: nil, exp: 0x811c9dc5},
		{name: "a", data: []byte("a"), exp: 0xe40c292c},
		{name: "foobar", data: []byte("foobar"), exp: 0xbf9cf968},
		{name: "binary", data: []byte{0x00, 0xff, 0x10, 0x20}, exp: mix([]byte{0x00, 0xff, 0x10, 0x20})},
	}

	t.Log("Given the need to fold bytes with the mixing hash.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got := hash.Mix(tst.data)
				if got != tst.exp {
					t.Logf("\t%s\tTest %d:\tgot: %#08x", failed, testID, got)
					t.Logf("\t%s\tTest %d:\texp: %#08x", failed, testID, tst.exp)
					t.Fatalf("\t%s\tTest %d:\tShould get back the right hash.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the right hash.", success, testID)

				if again := hash.Mix(tst.data); again != got {
					t.Fatalf("\t%s\tTest %d:\tShould be deterministic.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould be deterministic.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Solved(t *testing.T) {
	const ceiling = 0x0000FFFF

	if !hash.Solved(0x0000FFFF, ceiling) {
		t.Fatalf("\t%s\tShould accept a digest equal to the ceiling.", failed)
	}
	t.Logf("\t%s\tShould accept a digest equal to the ceiling.", success)

	if hash.Solved(0x00010000, ceiling) {
		t.Fatalf("\t%s\tShould reject a digest above the ceiling.", failed)
	}
	t.Logf("\t%s\tShould reject a digest above the ceiling.", success)
}
