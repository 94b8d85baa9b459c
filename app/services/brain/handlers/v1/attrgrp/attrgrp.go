// Package attrgrp maintains the group of handlers for the attribute surface
// used by the keypad, the sensor nodes and the console peers.
package attrgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/attr"
	"github.com/ardanlabs/lockbox/business/core/sensor"
	"github.com/ardanlabs/lockbox/business/web/errs"
	"github.com/ardanlabs/lockbox/foundation/events"
	"github.com/ardanlabs/lockbox/foundation/latch"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
	"github.com/ardanlabs/lockbox/foundation/web"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PeerHeader carries the session id of a connected peer on one-shot
// attribute writes so the write can classify the peer.
const PeerHeader = "X-Peer-ID"

// Set of attribute names.
const (
	AttrUsername = "username"
	AttrPasscode = "passcode"
	AttrLock     = "lock"
	AttrStatus   = "status"
	AttrBlock    = "block"
	AttrSensor   = "sensor"
	AttrTamper   = "tamper"
)

// Handlers manages the set of attribute endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Latch   *latch.Latch
	Access  *access.Core
	Sensor  *sensor.Core
	DB      *database.Database
	Evts    *events.Events
	Beacons attr.BeaconAddrs
	WS      websocket.Upgrader
}

// Read returns the packed value of an attribute.
func (h Handlers) Read(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	b, err := h.read(web.Param(r, "name"))
	if err != nil {
		return err
	}

	return web.RespondRaw(ctx, w, b, http.StatusOK)
}

// Write applies a packed attribute value.
func (h Handlers) Write(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	name := web.Param(r, "name")

	b, err := web.ReadRaw(r)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	accepted, err := h.write(r.Header.Get(PeerHeader), name, b)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, writeResult{Attr: name, Accepted: accepted}, http.StatusOK)
}

// Scan accepts a passive beacon report. Reports from unknown hardware
// addresses are ignored.
func (h Handlers) Scan(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var report scanReport
	if err := web.Decode(r, &report); err != nil {
		return err
	}

	if h.Latch.IsSet() {
		return access.ErrShutdown
	}

	b, err := attr.DecodeBeacon(h.Beacons, report.Addr, common.FromHex(report.Data))
	if err != nil {
		return err
	}

	if b.Kind == attr.BeaconUnknown {
		return web.Respond(ctx, w, scanResult{Kind: b.Kind.String()}, http.StatusAccepted)
	}

	if err := h.Sensor.Beacon(b); err != nil {
		return err
	}

	return web.Respond(ctx, w, scanResult{Kind: b.Kind.String()}, http.StatusOK)
}

// =============================================================================

func (h Handlers) read(name string) ([]byte, error) {
	switch name {
	case AttrUsername:
		return []byte(h.Access.Username()), nil

	case AttrPasscode:
		return []byte(h.Access.Passcode()), nil

	case AttrLock:
		return attr.EncodeLock(h.Access.LockOpen()), nil

	case AttrStatus:
		return attr.EncodeStatus(h.Access.State()), nil

	case AttrBlock:
		return attr.EncodeBlockInfo(h.DB.Stats()), nil

	case AttrSensor:
		return attr.EncodeSensor(h.Sensor.Last()), nil

	case AttrTamper:
		return attr.EncodeTamperControl(h.Access.State().Tamper), nil
	}

	return nil, errs.NewTrusted(fmt.Errorf("attribute %q not found", name), http.StatusNotFound)
}

// write validates the shape of the payload before anything reaches the
// core. It reports whether the write was accepted by the state machine.
func (h Handlers) write(peerID string, name string, b []byte) (bool, error) {
	if h.Latch.IsSet() {
		return false, access.ErrShutdown
	}

	switch name {
	case AttrUsername:
		user, err := attr.Username(b)
		if err != nil {
			return false, err
		}
		h.classify(peerID, events.IdentityPrimaryConsole)
		return h.Access.BindUsername(user)

	case AttrPasscode:
		code, err := attr.Passcode(b)
		if err != nil {
			return false, err
		}
		h.touch(peerID)
		return h.Access.VerifyPasscode(h.Access.Username(), code)

	case AttrSensor:
		reading, err := attr.SensorFeed(b)
		if err != nil {
			return false, err
		}
		h.classify(peerID, events.IdentitySensorFeed)
		return h.Sensor.Presence(reading)

	case AttrTamper:
		trigger, err := attr.TamperControl(b)
		if err != nil {
			return false, err
		}
		h.touch(peerID)
		if !trigger {
			return false, nil
		}
		return h.Access.TriggerTamperShutdown("tamper control write"), nil

	case AttrLock, AttrStatus, AttrBlock:
		return false, errs.NewTrusted(fmt.Errorf("attribute %q is read only", name), http.StatusMethodNotAllowed)
	}

	return false, errs.NewTrusted(fmt.Errorf("attribute %q not found", name), http.StatusNotFound)
}

func (h Handlers) classify(peerID string, identity events.Identity) {
	if peerID == "" {
		return
	}

	id, err := h.Evts.Classify(peerID, identity)
	if err != nil {
		if !errors.Is(err, events.ErrNotFound) {
			h.Log.Errorw("classify peer", "peer", peerID, "ERROR", err)
		}
		return
	}

	h.Log.Infow("classify peer", "peer", peerID, "identity", id)
}

func (h Handlers) touch(peerID string) {
	if peerID != "" {
		h.Evts.Touch(peerID)
	}
}
