package attr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Default hardware addresses of the sensor nodes.
const (
	PresenceAddr = "DA:FF:AA:FF:AA:FF"
	TamperAddr   = "DA:BB:CC:BB:CC:FF"
)

// iBeacon manufacturer data layout.
const (
	beaconLen    = 25
	majorOffset  = 20
	tamperOffset = 13
	tamperLen    = 12
)

var beaconPrefix = []byte{0x4c, 0x00, 0x02, 0x15}

// BeaconKind identifies which sensor node sent a beacon.
type BeaconKind int

// Set of beacon kinds.
const (
	BeaconUnknown BeaconKind = iota
	BeaconPresence
	BeaconTamper
)

// String implements the fmt.Stringer interface.
func (k BeaconKind) String() string {
	switch k {
	case BeaconPresence:
		return "presence"
	case BeaconTamper:
		return "tamper"
	default:
		return "unknown"
	}
}

// Vector is a tri-axis sample.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Beacon is a decoded sensor beacon.
type Beacon struct {
	Kind   BeaconKind `json:"kind"`
	Addr   string     `json:"addr"`
	VOC    uint16     `json:"voc,omitempty"`
	Magnet Vector     `json:"magnet"`
	Accel  Vector     `json:"accel"`
}

// BeaconAddrs holds the hardware addresses the brain listens to.
type BeaconAddrs struct {
	Presence string
	Tamper   string
}

// DecodeBeacon decodes the manufacturer data of a beacon sent by a known
// sensor node. The presence node carries the VOC reading big endian in the
// major field. The tamper node carries twelve signed bytes, magnetometer
// then accelerometer, each axis as an integer part and hundredths.
func DecodeBeacon(addrs BeaconAddrs, addr string, data []byte) (Beacon, error) {
	if len(data) < beaconLen || !bytes.HasPrefix(data, beaconPrefix) {
		return Beacon{}, fmt.Errorf("%w: not an ibeacon payload", ErrInvalidArgument)
	}

	switch {
	case strings.EqualFold(addr, addrs.Presence):
		return Beacon{
			Kind: BeaconPresence,
			Addr: addr,
			VOC:  binary.BigEndian.Uint16(data[majorOffset : majorOffset+2]),
		}, nil

	case strings.EqualFold(addr, addrs.Tamper):
		raw := data[tamperOffset : tamperOffset+tamperLen]

		v := func(i int) float64 {
			return float64(int8(raw[i])) + float64(int8(raw[i+1]))/100
		}

		return Beacon{
			Kind:   BeaconTamper,
			Addr:   addr,
			Magnet: Vector{X: v(0), Y: v(2), Z: v(4)},
			Accel:  Vector{X: v(6), Y: v(8), Z: v(10)},
		}, nil
	}

	return Beacon{Kind: BeaconUnknown, Addr: addr}, nil
}
