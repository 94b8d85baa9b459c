// Package sensor provides the business logic that turns sensor readings into
// access events.
package sensor

import (
	"fmt"
	"math"
	"sync"

	"github.com/ardanlabs/lockbox/business/core/attr"
	"go.uber.org/zap"
)

// Default thresholds.
const (
	DefaultPresenceThreshold = 250
	DefaultAccelLimit        = 15.0
	DefaultMagnetLimit       = 100.0
)

// Access is the part of the access core the sensors drive.
type Access interface {
	OnPresence(reading uint16) (bool, error)
	TriggerTamperShutdown(reason string) bool
}

// Notifier pushes sensor readings to subscribed peers.
type Notifier interface {
	Sensor(reading attr.Reading)
}

// Config represents the collaborators and settings required by the core.
type Config struct {
	Log               *zap.SugaredLogger
	Access            Access
	Notifier          Notifier
	Clock             func() uint32
	PresenceThreshold uint16
	AccelLimit        float64
	MagnetLimit       float64
}

// Core manages the set of APIs for sensor ingestion.
type Core struct {
	log       *zap.SugaredLogger
	access    Access
	notifier  Notifier
	clock     func() uint32
	threshold uint16
	accel     float64
	magnet    float64

	mu   sync.RWMutex
	last attr.Reading
}

// NewCore constructs a core for sensor api access.
func NewCore(cfg Config) *Core {
	threshold := cfg.PresenceThreshold
	if threshold == 0 {
		threshold = DefaultPresenceThreshold
	}

	accel := cfg.AccelLimit
	if accel <= 0 {
		accel = DefaultAccelLimit
	}

	magnet := cfg.MagnetLimit
	if magnet <= 0 {
		magnet = DefaultMagnetLimit
	}

	clock := cfg.Clock
	if clock == nil {
		clock = func() uint32 { return 0 }
	}

	return &Core{
		log:       cfg.Log,
		access:    cfg.Access,
		notifier:  cfg.Notifier,
		clock:     clock,
		threshold: threshold,
		accel:     accel,
		magnet:    magnet,
		last:      attr.Reading{Threshold: threshold},
	}
}

// Presence handles a presence reading. The reading is always forwarded to
// the subscribed peers and starts an access cycle when it is above the
// threshold.
func (c *Core) Presence(reading uint16) (bool, error) {
	r := attr.Reading{
		Current:   reading,
		Threshold: c.threshold,
		Timestamp: c.clock(),
	}

	c.mu.Lock()
	c.last = r
	c.mu.Unlock()

	c.notifier.Sensor(r)

	if reading <= c.threshold {
		return false, nil
	}

	return c.access.OnPresence(reading)
}

// Tamper handles a pair of magnetometer and accelerometer samples. A
// shutdown is triggered when the average magnitude of either sample is
// above its limit. It reports whether this call triggered the shutdown.
func (c *Core) Tamper(magnet attr.Vector, accel attr.Vector) bool {
	m := Magnitude(magnet)
	a := Magnitude(accel)

	var reason string
	switch {
	case a > c.accel:
		reason = fmt.Sprintf("accel avg %.2f > %.2f", a, c.accel)
	case m > c.magnet:
		reason = fmt.Sprintf("magnet avg %.2f > %.2f", m, c.magnet)
	default:
		return false
	}

	c.log.Infow("tamper detected", "accel", a, "magnet", m, "reason", reason)

	return c.access.TriggerTamperShutdown(reason)
}

// Beacon routes a decoded beacon to the matching ingestion.
func (c *Core) Beacon(b attr.Beacon) error {
	switch b.Kind {
	case attr.BeaconPresence:
		_, err := c.Presence(b.VOC)
		return err

	case attr.BeaconTamper:
		c.Tamper(b.Magnet, b.Accel)
		return nil
	}

	return nil
}

// Last returns the last presence reading.
func (c *Core) Last() attr.Reading {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.last
}

// Magnitude returns the average of the absolute value of each axis.
func Magnitude(v attr.Vector) float64 {
	return (math.Abs(v.X) + math.Abs(v.Y) + math.Abs(v.Z)) / 3
}
