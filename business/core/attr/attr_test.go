package attr_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/attr"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Writes(t *testing.T) {
	type table struct {
		name string
		fn   func([]byte) error
		in   []byte
		ok   bool
	}

	username := func(b []byte) error { _, err := attr.Username(b); return err }
	passcode := func(b []byte) error { _, err := attr.Passcode(b); return err }
	feed := func(b []byte) error { _, err := attr.SensorFeed(b); return err }
	tamper := func(b []byte) error { _, err := attr.TamperControl(b); return err }

	tt := []table{
		{name: "username", fn: username, in: []byte("alice"), ok: true},
		{name: "username-padded", fn: username, in: []byte("PC_CLIENT\x00\x00"), ok: true},
		{name: "username-empty", fn: username, in: []byte{}, ok: false},
		{name: "username-long", fn: username, in: []byte("abcdefghijklmnop"), ok: false},
		{name: "passcode", fn: passcode, in: []byte("482913"), ok: true},
		{name: "passcode-short", fn: passcode, in: []byte("48291"), ok: false},
		{name: "feed", fn: feed, in: []byte{0x58, 0x02}, ok: true},
		{name: "feed-long", fn: feed, in: []byte{1, 2, 3}, ok: false},
		{name: "tamper", fn: tamper, in: []byte{1}, ok: true},
		{name: "tamper-empty", fn: tamper, in: nil, ok: false},
	}

	t.Log("Given the need to validate the shape of attribute writes.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen writing %s.", testID, tst.name)
			{
				err := tst.fn(tst.in)
				switch tst.ok {
				case true:
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould accept the payload: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould accept the payload.", success, testID)

				default:
					if !errors.Is(err, attr.ErrInvalidArgument) {
						t.Fatalf("\t%s\tTest %d:\tShould reject the payload: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject the payload.", success, testID)
				}
			}
		}
	}
}

func Test_Encode(t *testing.T) {
	t.Log("Given the need to encode attribute reads.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen encoding the status and block info.", testID)
		{
			state := access.State{Phase: access.PhaseLocked, FailedAttempts: 3, Locked: true}
			if got := attr.EncodeStatus(state); !bytes.Equal(got, []byte{3, 3, 1, 0}) {
				t.Fatalf("\t%s\tTest %d:\tShould encode the status: got %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould encode the status.", success, testID)

			stats := database.Stats{TotalBlocks: 2, LatestHash: 0x0000ABCD, LatestID: 2}
			exp := []byte{2, 0, 0, 0, 0xCD, 0xAB, 0, 0, 2, 0, 0, 0}
			if got := attr.EncodeBlockInfo(stats); !bytes.Equal(got, exp) {
				t.Fatalf("\t%s\tTest %d:\tShould encode the block info: got %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould encode the block info.", success, testID)

			r := attr.Reading{Current: 600, Threshold: 250, Timestamp: 1}
			exp = []byte{0x58, 0x02, 0xFA, 0x00, 1, 0, 0, 0}
			if got := attr.EncodeSensor(r); !bytes.Equal(got, exp) {
				t.Fatalf("\t%s\tTest %d:\tShould encode the sensor reading: got %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould encode the sensor reading.", success, testID)
		}
	}
}

func Test_DecodeBeacon(t *testing.T) {
	addrs := attr.BeaconAddrs{Presence: attr.PresenceAddr, Tamper: attr.TamperAddr}

	beacon := func() []byte {
		b := make([]byte, 25)
		copy(b, []byte{0x4c, 0x00, 0x02, 0x15})
		return b
	}

	t.Log("Given the need to decode sensor beacons.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the presence node reports 600 PPB.", testID)
		{
			data := beacon()
			data[20], data[21] = 0x02, 0x58

			b, err := attr.DecodeBeacon(addrs, "da:ff:aa:ff:aa:ff", data)
			if err != nil || b.Kind != attr.BeaconPresence || b.VOC != 600 {
				t.Fatalf("\t%s\tTest %d:\tShould decode the reading: %+v %v", failed, testID, b, err)
			}
			t.Logf("\t%s\tTest %d:\tShould decode the reading.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the tamper node reports its samples.", testID)
		{
			data := beacon()
			copy(data[13:], []byte{
				10, 50, 0xFE, 0xE7, 0, 0, // magnet 10.50, -2.25, 0
				20, 0, 0, 0, 1, 10, // accel 20.00, 0, 1.10
			})

			b, err := attr.DecodeBeacon(addrs, attr.TamperAddr, data)
			if err != nil || b.Kind != attr.BeaconTamper {
				t.Fatalf("\t%s\tTest %d:\tShould decode a tamper beacon: %v", failed, testID, err)
			}

			near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
			if !near(b.Magnet.X, 10.5) || !near(b.Magnet.Y, -2.25) || !near(b.Accel.X, 20) || !near(b.Accel.Z, 1.1) {
				t.Fatalf("\t%s\tTest %d:\tShould decode the samples: %+v", failed, testID, b)
			}
			t.Logf("\t%s\tTest %d:\tShould decode the samples.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the payload is not an ibeacon.", testID)
		{
			if _, err := attr.DecodeBeacon(addrs, attr.TamperAddr, []byte{1, 2}); !errors.Is(err, attr.ErrInvalidArgument) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the payload: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the payload.", success, testID)
		}
	}
}
