// Package notify pushes state changes to the subscribed peers.
package notify

import (
	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/attr"
	"github.com/ardanlabs/lockbox/foundation/events"
	"github.com/ardanlabs/lockbox/foundation/latch"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
)

// Notifier encodes notifications in their attribute shape and sends them to
// the peers that enabled the topic. Every notification is dropped once the
// system has shut down.
type Notifier struct {
	evts  *events.Events
	latch *latch.Latch
}

// New constructs a notifier over the events.
func New(evts *events.Events, lt *latch.Latch) *Notifier {
	return &Notifier{
		evts:  evts,
		latch: lt,
	}
}

// Lock sends the lock status.
func (n *Notifier) Lock(open bool) {
	n.send(events.TopicLock, attr.EncodeLock(open))
}

// Status sends the access status.
func (n *Notifier) Status(state access.State) {
	n.send(events.TopicStatus, attr.EncodeStatus(state))
}

// Ledger sends the block info.
func (n *Notifier) Ledger(stats database.Stats) {
	n.send(events.TopicLedger, attr.EncodeBlockInfo(stats))
}

// Sensor sends the presence reading.
func (n *Notifier) Sensor(reading attr.Reading) {
	n.send(events.TopicSensor, attr.EncodeSensor(reading))
}

func (n *Notifier) send(topic events.Topic, payload []byte) {
	if n.latch.IsSet() {
		return
	}
	n.evts.Send(topic, payload)
}
