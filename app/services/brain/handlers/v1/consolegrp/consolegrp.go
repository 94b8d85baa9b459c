// Package consolegrp maintains the group of handlers used by the operator
// console.
package consolegrp

import (
	"context"
	"net/http"

	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/sensor"
	"github.com/ardanlabs/lockbox/foundation/events"
	"github.com/ardanlabs/lockbox/foundation/latch"
	"github.com/ardanlabs/lockbox/foundation/web"
	"go.uber.org/zap"
)

// ConsoleTamperReason is recorded when the console triggers a shutdown
// without a reason.
const ConsoleTamperReason = "console tamper trigger"

// Handlers manages the set of console endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Latch  *latch.Latch
	Access *access.Core
	Sensor *sensor.Core
	Evts   *events.Events
}

// Status returns the state of the system.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st := status{
		State:    h.Access.State(),
		Username: h.Access.Username(),
		Halted:   h.Latch.IsSet(),
		Reason:   h.Latch.Reason(),
		Sensor:   h.Sensor.Last(),
		Peers:    h.Evts.Subscribers(),
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Presence simulates a presence sensor reading.
func (h Handlers) Presence(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var p presence
	if err := web.Decode(r, &p); err != nil {
		return err
	}

	started, err := h.Sensor.Presence(p.Reading)
	if err != nil {
		return err
	}

	res := result{Status: "reading below threshold"}
	if started {
		res.Status = "presence detected"
	}

	return web.Respond(ctx, w, res, http.StatusOK)
}

// GeneratePasscode issues a passcode for a user.
func (h Handlers) GeneratePasscode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var g generate
	if err := web.Decode(r, &g); err != nil {
		return err
	}

	code, err := h.Access.GeneratePasscode(g.User)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, result{Status: "passcode generated", User: g.User, Code: code}, http.StatusOK)
}

// VerifyPasscode enters a passcode for a user.
func (h Handlers) VerifyPasscode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var v verify
	if err := web.Decode(r, &v); err != nil {
		return err
	}

	granted, err := h.Access.VerifyPasscode(v.User, v.Code)
	if err != nil {
		return err
	}

	res := result{Status: "access denied", User: v.User, Granted: &granted}
	if granted {
		res.Status = "access granted"
	}

	return web.Respond(ctx, w, res, http.StatusOK)
}

// Tamper triggers the tamper shutdown.
func (h Handlers) Tamper(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var t tamper
	if err := web.Decode(r, &t); err != nil {
		return err
	}

	reason := t.Reason
	if reason == "" {
		reason = ConsoleTamperReason
	}

	res := result{Status: "already shut down"}
	if h.Access.TriggerTamperShutdown(reason) {
		res.Status = "system halted"
	}

	return web.Respond(ctx, w, res, http.StatusOK)
}

// OpenLock opens the lock.
func (h Handlers) OpenLock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.Access.OpenLock(); err != nil {
		return err
	}

	return web.Respond(ctx, w, result{Status: "lock open"}, http.StatusOK)
}

// CloseLock closes the lock.
func (h Handlers) CloseLock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.Access.CloseLock(); err != nil {
		return err
	}

	return web.Respond(ctx, w, result{Status: "lock closed"}, http.StatusOK)
}
