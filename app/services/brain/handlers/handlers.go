// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/ardanlabs/lockbox/app/services/brain/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/lockbox/app/services/brain/handlers/v1"
	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/attr"
	"github.com/ardanlabs/lockbox/business/core/sensor"
	"github.com/ardanlabs/lockbox/business/sys/metrics"
	"github.com/ardanlabs/lockbox/business/web/mid"
	"github.com/ardanlabs/lockbox/foundation/events"
	"github.com/ardanlabs/lockbox/foundation/latch"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
	"github.com/ardanlabs/lockbox/foundation/ledger/pipeline"
	"github.com/ardanlabs/lockbox/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	Metrics  *metrics.Recorder
	Latch    *latch.Latch
	DB       *database.Database
	Pipeline *pipeline.Pipeline
	Access   *access.Core
	Sensor   *sensor.Core
	Evts     *events.Events
	Beacons  attr.BeaconAddrs
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(cfg.Metrics),
		mid.Cors("*"),
		mid.Panics(cfg.Metrics),
	)

	// Accept CORS 'OPTIONS' preflight requests if config has been provided.
	// Don't forget to apply the CORS middleware to the routes that need it.
	// Example Config: `conf:"default:https://MY_DOMAIN.COM"`
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors("*"))

	// Load the v1 routes.
	v1.Routes(app, v1.Config{
		Log:      cfg.Log,
		Latch:    cfg.Latch,
		DB:       cfg.DB,
		Pipeline: cfg.Pipeline,
		Access:   cfg.Access,
		Sensor:   cfg.Sensor,
		Evts:     cfg.Evts,
		Beacons:  cfg.Beacons,
	})

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugConfig contains the systems the debug routes report on.
type DebugConfig struct {
	Build    string
	Log      *zap.SugaredLogger
	Registry *prometheus.Registry
	Latch    *latch.Latch
	DB       *database.Database
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service. This bypassing the use of the
// DefaultServerMux. Using the DefaultServerMux would be a security risk since
// a dependency could inject a handler into our service without us knowing it.
func DebugMux(cfg DebugConfig) http.Handler {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build:  cfg.Build,
		Log:    cfg.Log,
		Halted: cfg.Latch.IsSet,
		Ledger: cfg.DB.Validate,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	mux.Handle("/metrics", metrics.Handler(cfg.Registry))

	return mux
}
