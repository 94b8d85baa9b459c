package attrgrp

import (
	"github.com/ardanlabs/lockbox/business/sys/validate"
)

// scanReport is a passive beacon report relayed by a scanner.
type scanReport struct {
	Addr string `json:"addr" validate:"required,mac"`
	Data string `json:"data" validate:"required,max=128"`
}

// Validate checks the report for shape.
func (s scanReport) Validate() error {
	return validate.Check(s)
}

type scanResult struct {
	Kind string `json:"kind"`
}

type writeResult struct {
	Attr     string `json:"attr"`
	Accepted bool   `json:"accepted"`
}

// =============================================================================

// Frame types exchanged over a peer session.
const (
	frameWelcome     = "welcome"
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	frameWrite       = "write"
	frameResult      = "result"
	frameNotify      = "notify"
)

// inFrame is a request sent by a peer. The payload is base64 in JSON.
type inFrame struct {
	Type    string `json:"type"`
	Topic   string `json:"topic,omitempty"`
	Attr    string `json:"attr,omitempty"`
	Payload []byte `json:"payload,omitempty"`
}

// outFrame is sent to a peer.
type outFrame struct {
	Type     string `json:"type"`
	Peer     string `json:"peer,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Attr     string `json:"attr,omitempty"`
	Payload  []byte `json:"payload,omitempty"`
	Accepted bool   `json:"accepted,omitempty"`
	Error    string `json:"error,omitempty"`
}
