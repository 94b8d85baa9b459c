// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/lockbox/app/services/brain/handlers/v1/attrgrp"
	"github.com/ardanlabs/lockbox/app/services/brain/handlers/v1/consolegrp"
	"github.com/ardanlabs/lockbox/app/services/brain/handlers/v1/ledgergrp"
	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/attr"
	"github.com/ardanlabs/lockbox/business/core/sensor"
	"github.com/ardanlabs/lockbox/foundation/events"
	"github.com/ardanlabs/lockbox/foundation/latch"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
	"github.com/ardanlabs/lockbox/foundation/ledger/pipeline"
	"github.com/ardanlabs/lockbox/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log      *zap.SugaredLogger
	Latch    *latch.Latch
	DB       *database.Database
	Pipeline *pipeline.Pipeline
	Access   *access.Core
	Sensor   *sensor.Core
	Evts     *events.Events
	Beacons  attr.BeaconAddrs
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	atr := attrgrp.Handlers{
		Log:     cfg.Log,
		Latch:   cfg.Latch,
		Access:  cfg.Access,
		Sensor:  cfg.Sensor,
		DB:      cfg.DB,
		Evts:    cfg.Evts,
		Beacons: cfg.Beacons,
		WS:      websocket.Upgrader{},
	}

	app.Handle(http.MethodGet, version, "/attr/:name", atr.Read)
	app.Handle(http.MethodPut, version, "/attr/:name", atr.Write)
	app.Handle(http.MethodPost, version, "/scan", atr.Scan)
	app.Handle(http.MethodGet, version, "/peers", atr.Peers)

	cns := consolegrp.Handlers{
		Log:    cfg.Log,
		Latch:  cfg.Latch,
		Access: cfg.Access,
		Sensor: cfg.Sensor,
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/status", cns.Status)
	app.Handle(http.MethodPost, version, "/presence", cns.Presence)
	app.Handle(http.MethodPost, version, "/passcode/generate", cns.GeneratePasscode)
	app.Handle(http.MethodPost, version, "/passcode/verify", cns.VerifyPasscode)
	app.Handle(http.MethodPost, version, "/tamper", cns.Tamper)
	app.Handle(http.MethodPost, version, "/lock/open", cns.OpenLock)
	app.Handle(http.MethodPost, version, "/lock/close", cns.CloseLock)

	ldg := ledgergrp.Handlers{
		Log:      cfg.Log,
		DB:       cfg.DB,
		Pipeline: cfg.Pipeline,
		Access:   cfg.Access,
	}

	app.Handle(http.MethodGet, version, "/ledger/stats", ldg.Stats)
	app.Handle(http.MethodGet, version, "/ledger/blocks", ldg.Blocks)
	app.Handle(http.MethodGet, version, "/ledger/blocks/:seq", ldg.Block)
	app.Handle(http.MethodGet, version, "/ledger/history/:user", ldg.History)
	app.Handle(http.MethodPost, version, "/ledger/validate", ldg.Validate)
	app.Handle(http.MethodPost, version, "/ledger/reset", ldg.Reset)
}
