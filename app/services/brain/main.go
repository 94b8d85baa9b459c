package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/lockbox/app/services/brain/handlers"
	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/attr"
	"github.com/ardanlabs/lockbox/business/core/notify"
	"github.com/ardanlabs/lockbox/business/core/sensor"
	"github.com/ardanlabs/lockbox/business/sys/alert"
	"github.com/ardanlabs/lockbox/business/sys/metrics"
	"github.com/ardanlabs/lockbox/foundation/actuator"
	"github.com/ardanlabs/lockbox/foundation/events"
	"github.com/ardanlabs/lockbox/foundation/latch"
	"github.com/ardanlabs/lockbox/foundation/ledger/database"
	"github.com/ardanlabs/lockbox/foundation/ledger/pipeline"
	"github.com/ardanlabs/lockbox/foundation/ledger/storage/bolt"
	"github.com/ardanlabs/lockbox/foundation/ledger/storage/file"
	"github.com/ardanlabs/lockbox/foundation/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger. The log file is read from the
	// environment since the logger exists before the configuration.
	log, err := logger.NewWithFile("BRAIN", logger.FileConfig{
		Path:       os.Getenv("LOCKBOX_LOG_FILE"),
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		Ledger struct {
			Backend string `conf:"default:file,help:file or bolt"`
			Path    string `conf:"default:zblock/ledger.bin"`
		}
		Access struct {
			PresenceThreshold uint16        `conf:"default:250"`
			PasscodeTTL       time.Duration `conf:"default:5m"`
			MaxFailures       int           `conf:"default:3"`
		}
		Tamper struct {
			AccelLimit  float64 `conf:"default:15"`
			MagnetLimit float64 `conf:"default:100"`
		}
		Beacon struct {
			PresenceAddr string `conf:"default:DA:FF:AA:FF:AA:FF"`
			TamperAddr   string `conf:"default:DA:BB:CC:BB:CC:FF"`
		}
		Alert struct {
			Enabled bool   `conf:"default:false"`
			Webhook string `conf:"mask"`
			Device  string `conf:"default:brain"`
		}
		Housekeeping struct {
			Interval time.Duration `conf:"default:10s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "lockbox brain node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "LOCKBOX"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(`  _     ___   ____ _  ______   _____  __ `)
	fmt.Println(` | |   / _ \ / ___| |/ / __ ) / _ \ \/ / `)
	fmt.Println(` | |  | | | | |   | ' /|  _ \| | | \  /  `)
	fmt.Println(` | |__| |_| | |___| . \| |_) | |_| /  \  `)
	fmt.Println(` |_____\___/ \____|_|\_\____/ \___/_/\_\ `)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// Uptime is the time base of the ledger and the passcodes.
	start := time.Now()
	uptime := func() time.Duration { return time.Since(start) }
	clock := func() uint32 { return uint32(uptime().Milliseconds()) }

	// The ledger packages accept a function of this signature to allow the
	// application to log.
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
	}

	// =========================================================================
	// Metrics Support

	registry := prometheus.NewRegistry()
	rec := metrics.NewRecorder(registry)

	// =========================================================================
	// Ledger Support

	// The latch is the one way shutdown signal shared by every subsystem.
	lt := latch.New()

	store, err := openStorage(cfg.Ledger.Backend, cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("opening ledger storage: %w", err)
	}

	db, err := database.New(database.Config{
		Storage:   store,
		Latch:     lt,
		Clock:     clock,
		EvHandler: ev,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer db.Close()

	alerts := alert.New(alert.Config{
		Log:     log,
		Enabled: cfg.Alert.Enabled,
		Webhook: cfg.Alert.Webhook,
		Device:  cfg.Alert.Device,
	})
	defer alerts.Wait()

	// The ledger is verified once at boot. A failure is reported and the
	// ledger is left as it is.
	if err := db.Validate(); err != nil {
		idx, _ := database.InvalidAt(err)
		log.Errorw("startup", "status", "ledger failed validation", "index", idx, "ERROR", err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := alerts.LedgerInvalid(ctx, idx, err.Error()); err != nil {
			log.Errorw("startup", "status", "ledger alert", "ERROR", err)
		}
		cancel()
	}

	stats := db.Stats()
	rec.SetLedgerBlocks(stats.TotalBlocks)
	log.Infow("startup", "status", "ledger loaded", "blocks", stats.TotalBlocks, "latest", stats.LatestHash)

	// =========================================================================
	// Events and Notification Support

	evts := events.New()
	notifier := notify.New(evts, lt)

	pl := pipeline.Run(pipeline.Config{
		DB:    db,
		Latch: lt,
		Clock: clock,
		BlockHandler: func(block database.Block) {
			stats := db.Stats()
			rec.ObserveBlock(int(block.TxCount), stats.TotalBlocks)
			notifier.Ledger(stats)
		},
		OnMined:   rec.ObserveMining,
		EvHandler: ev,
	})
	defer pl.Shutdown()

	// =========================================================================
	// Access Support

	servo := actuator.New(ev)

	core := access.NewCore(access.Config{
		Log:         log,
		Latch:       lt,
		Pipeline:    observed{Pipeline: pl, rec: rec},
		Ledger:      db,
		Actuator:    servo,
		Notifier:    notifier,
		Peers:       evts,
		Alerter:     alerts,
		Uptime:      uptime,
		PasscodeTTL: cfg.Access.PasscodeTTL,
		MaxFailures: cfg.Access.MaxFailures,
	})

	sense := sensor.NewCore(sensor.Config{
		Log:               log,
		Access:            core,
		Notifier:          notifier,
		Clock:             clock,
		PresenceThreshold: cfg.Access.PresenceThreshold,
		AccelLimit:        cfg.Tamper.AccelLimit,
		MagnetLimit:       cfg.Tamper.MagnetLimit,
	})

	// =========================================================================
	// Start Housekeeping

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go housekeeping(ctx, log, cfg.Housekeeping.Interval, func() {
		if n := core.Sweep(); n > 0 {
			log.Infow("housekeeping", "status", "passcodes expired", "count", n)
		}

		st := core.State()
		rec.SetAccess(uint8(st.Phase), st.FailedAttempts)
		rec.SetQueueDepth(pl.Len())
		rec.SetPeers(evts.Len())
		rec.SetShutdown(lt.IsSet())

		log.Infow("housekeeping", "status", "alive", "phase", st.Phase, "peers", evts.Len(), "pending", pl.Len(), "halted", lt.IsSet())
	})

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(handlers.DebugConfig{
		Build:    build,
		Log:      log,
		Registry: registry,
		Latch:    lt,
		DB:       db,
	})

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Metrics:  rec,
		Latch:    lt,
		DB:       db,
		Pipeline: pl,
		Access:   core,
		Sensor:   sense,
		Evts:     evts,
		Beacons: attr.BeaconAddrs{
			Presence: cfg.Beacon.PresenceAddr,
			Tamper:   cfg.Beacon.TamperAddr,
		},
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Halt()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// openStorage constructs the configured ledger storage backend.
func openStorage(backend string, path string) (database.Storage, error) {
	switch backend {
	case "file":
		return file.New(path)
	case "bolt":
		return bolt.New(path)
	}

	return nil, fmt.Errorf("unknown ledger backend %q", backend)
}

// housekeeping runs the work function on every tick until the context is
// cancelled.
func housekeeping(ctx context.Context, log *zap.SugaredLogger, interval time.Duration, work func()) {
	log.Infow("housekeeping", "status", "started", "interval", interval)
	defer log.Infow("housekeeping", "status", "completed")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			work()
		case <-ctx.Done():
			return
		}
	}
}

// observed counts the transactions the pipeline refused.
type observed struct {
	*pipeline.Pipeline
	rec *metrics.Recorder
}

// Submit implements the access.Pipeline interface.
func (o observed) Submit(kind database.Kind, actorID string, payload string) error {
	err := o.Pipeline.Submit(kind, actorID, payload)
	switch {
	case errors.Is(err, pipeline.ErrQueueFull):
		o.rec.ObserveRejected("queue_full")
	case errors.Is(err, database.ErrShutdown):
		o.rec.ObserveRejected("shutdown")
	case err != nil:
		o.rec.ObserveRejected("other")
	}
	return err
}
