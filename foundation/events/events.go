// Package events allows for the registering and receiving of events. A fixed
// number of subscribers can be connected and each one picks the topics it
// wants to receive.
package events

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Capacity is the maximum number of connected subscribers.
const Capacity = 4

// Set of error variables for the subscriber table.
var (
	ErrCapacity = errors.New("subscriber table full")
	ErrHalted   = errors.New("events halted")
	ErrNotFound = errors.New("subscriber not found")
)

// =============================================================================

// Topic represents a class of notification a subscriber can enable.
type Topic int

// Set of topics.
const (
	TopicLock Topic = iota
	TopicStatus
	TopicLedger
	TopicSensor
	numTopics
)

var topicNames = [numTopics]string{"lock", "status", "ledger", "sensor"}

// String implements the fmt.Stringer interface.
func (t Topic) String() string {
	if t < 0 || t >= numTopics {
		return fmt.Sprintf("topic(%d)", int(t))
	}
	return topicNames[t]
}

// ParseTopic returns the topic for the specified name.
func ParseTopic(name string) (Topic, error) {
	for i, n := range topicNames {
		if n == name {
			return Topic(i), nil
		}
	}
	return 0, fmt.Errorf("unknown topic %q", name)
}

// Identity represents what kind of peer a subscriber turned out to be.
type Identity int

// Set of identities.
const (
	IdentityUnknown Identity = iota
	IdentityPrimaryConsole
	IdentitySensorFeed
)

// String implements the fmt.Stringer interface.
func (i Identity) String() string {
	switch i {
	case IdentityPrimaryConsole:
		return "primary_console"
	case IdentitySensorFeed:
		return "sensor_feed"
	default:
		return "unknown"
	}
}

// MarshalText implements the encoding.TextMarshaler interface.
func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// =============================================================================

// Message is a notification delivered to a subscriber.
type Message struct {
	Topic   Topic
	Payload []byte
}

// Subscriber is a snapshot of a connected subscriber.
type Subscriber struct {
	ID       string    `json:"id"`
	Identity Identity  `json:"identity"`
	LastSeen time.Time `json:"last_seen"`
	Topics   []string  `json:"topics"`
}

type subscriber struct {
	ch       chan Message
	identity Identity
	lastSeen time.Time
	topics   [numTopics]bool
}

// Events maintains a mapping of unique id and subscriber records so
// goroutines can register and receive events.
type Events struct {
	mu     sync.RWMutex
	m      map[string]*subscriber
	halted bool
	now    func() time.Time
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m:   make(map[string]*subscriber),
		now: time.Now,
	}
}

// Acquire takes a unique id and returns a channel that can be used to
// receive events. A new subscriber starts with every topic disabled.
func (evt *Events) Acquire(id string) (<-chan Message, error) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if evt.halted {
		return nil, ErrHalted
	}

	if sub, exists := evt.m[id]; exists {
		return sub.ch, nil
	}

	if len(evt.m) >= Capacity {
		return nil, ErrCapacity
	}

	// Since a message will be dropped if the websocket receiver is
	// not ready to receive, this arbitrary buffer should give the receiver
	// enough time to not lose a message. Websocket send could take long.
	const messageBuffer = 100

	sub := subscriber{
		ch:       make(chan Message, messageBuffer),
		lastSeen: evt.now(),
	}
	evt.m[id] = &sub

	return sub.ch, nil
}

// Release closes and removes the channel that was provided by the call to
// Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q: %w", id, ErrNotFound)
	}

	delete(evt.m, id)
	close(sub.ch)
	return nil
}

// Subscribe turns the delivery of a topic on or off for the subscriber.
func (evt *Events) Subscribe(id string, topic Topic, on bool) error {
	if topic < 0 || topic >= numTopics {
		return fmt.Errorf("topic %d out of range", int(topic))
	}

	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q: %w", id, ErrNotFound)
	}

	sub.topics[topic] = on
	sub.lastSeen = evt.now()
	return nil
}

// Classify records the identity of the subscriber. Only the first
// distinguishing write counts, so a classified subscriber keeps its
// identity. The resulting identity is returned.
func (evt *Events) Classify(id string, identity Identity) (Identity, error) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.m[id]
	if !exists {
		return IdentityUnknown, fmt.Errorf("id %q: %w", id, ErrNotFound)
	}

	if sub.identity == IdentityUnknown {
		sub.identity = identity
	}
	sub.lastSeen = evt.now()

	return sub.identity, nil
}

// Touch updates the last seen time of the subscriber.
func (evt *Events) Touch(id string) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.m[id]; exists {
		sub.lastSeen = evt.now()
	}
}

// Send signals a message to every subscriber that enabled the topic. Send
// will not block waiting for a receiver on any given channel. The number of
// subscribers the message was handed to is returned.
func (evt *Events) Send(topic Topic, payload []byte) int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	if evt.halted || topic < 0 || topic >= numTopics {
		return 0
	}

	var n int
	for _, sub := range evt.m {
		if !sub.topics[topic] {
			continue
		}

		select {
		case sub.ch <- Message{Topic: topic, Payload: payload}:
			n++
		default:
		}
	}

	return n
}

// Halt closes and removes every subscriber and refuses new ones from then
// on.
func (evt *Events) Halt() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	evt.halted = true

	for id, sub := range evt.m {
		delete(evt.m, id)
		close(sub.ch)
	}
}

// Halted reports whether Halt has been called.
func (evt *Events) Halted() bool {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return evt.halted
}

// Len returns the number of connected subscribers.
func (evt *Events) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Subscribers returns a snapshot of the connected subscribers.
func (evt *Events) Subscribers() []Subscriber {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	subs := make([]Subscriber, 0, len(evt.m))
	for id, sub := range evt.m {
		s := Subscriber{
			ID:       id,
			Identity: sub.identity,
			LastSeen: sub.lastSeen,
			Topics:   []string{},
		}
		for t, on := range sub.topics {
			if on {
				s.Topics = append(s.Topics, Topic(t).String())
			}
		}
		subs = append(subs, s)
	}

	return subs
}
