package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/gesture"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-powerstrip/internal/lifecycle"
	"github.com/nerrad567/gray-logic-powerstrip/internal/output"
	"github.com/nerrad567/gray-logic-powerstrip/internal/pairing"
	"github.com/nerrad567/gray-logic-powerstrip/internal/persist"
	"github.com/nerrad567/gray-logic-powerstrip/internal/platform"
	"github.com/nerrad567/gray-logic-powerstrip/internal/provisioning"
	"github.com/nerrad567/gray-logic-powerstrip/internal/store"
	"github.com/nerrad567/gray-logic-powerstrip/internal/strip"
	"github.com/nerrad567/gray-logic-powerstrip/internal/telemetry"
)

// shutdownTimeout bounds the final state flush.
const shutdownTimeout = 10 * time.Second

// run is the daemon, separated from main for testability.
//
// Startup order:
//  1. Config, logger, database and migrations
//  2. Output lines and the characteristic registry
//  3. Save scheduler, lifecycle controller, gesture bindings
//  4. Telemetry (optional) and boot: outputs driven, state restored
//  5. Provisioning wait in the background; once provisioned the remote
//     bridge connects
//
// Only startup failures return an error. Once booted, the strip keeps
// operating whatever happens to the network, the broker or the database.
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting PowerStrip Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version).With("device_id", cfg.Device.ID)
	log.Info("configuration loaded", "path", configPath)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	if healthErr := db.HealthCheck(ctx); healthErr != nil {
		return fmt.Errorf("database: %w", healthErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	driver, err := openDriver(cfg)
	if err != nil {
		return fmt.Errorf("opening outputs: %w", err)
	}
	updates := strip.UpdateRequesterFunc(func() {
		log.Info("firmware update check requested")
	})
	ps, err := strip.New(cfg, driver, updates)
	if err != nil {
		return fmt.Errorf("building strip: %w", err)
	}
	defer func() {
		if closeErr := ps.Close(); closeErr != nil {
			log.Error("error releasing outputs", "error", closeErr)
		}
	}()
	ps.Registry.SetLogger(log.Component("characteristic"))
	log.Info("outputs opened", "driver", cfg.GPIO.Driver, "outlets", len(ps.Outlets))

	stateStore := store.NewSQLiteStore(db.DB)
	saver := persist.New(persist.Options{
		Source:      ps.Registry,
		Store:       stateStore,
		Delay:       cfg.SaveDelay(),
		PreserveKey: strip.KeyPreserveState,
	})
	saver.SetLogger(log.Component("persist"))
	ps.Registry.SetSaveScheduler(saver)
	defer saver.Stop()

	pairings := pairing.NewManager(pairing.NewSQLiteStore(db.DB), cfg.Device.SetupCode)

	provisioner := provisioning.NewFileProvisioner(cfg.Provisioning.CredentialsPath)
	provisioner.SetLogger(log.Component("provisioning"))

	restarter := platform.NewCommandRestarter(cfg.Lifecycle.RestartCommand)
	restarter.SetLogger(log.Component("platform"))

	controller, err := lifecycle.New(lifecycle.Options{
		Registry:     ps.Registry,
		Store:        stateStore,
		Sessions:     store.NewSQLiteSessions(db.DB),
		Saver:        saver,
		Indicator:    ps.Indicator,
		Provisioning: provisioner,
		Pairing:      pairings,
		Restarter:    restarter,
		SettleDelay:  cfg.ResetSettleDelay(),
		PreserveKey:  strip.KeyPreserveState,
	})
	if err != nil {
		return fmt.Errorf("creating lifecycle controller: %w", err)
	}
	controller.SetLogger(log.Component("lifecycle"))

	dispatcher := gesture.NewDispatcher(ps.Registry, controller, controller)
	dispatcher.SetLogger(log.Component("gesture"))
	if bindErr := ps.Bind(dispatcher); bindErr != nil {
		return fmt.Errorf("binding buttons: %w", bindErr)
	}

	influxClient := startTelemetry(ctx, cfg, log, ps.Registry, controller)
	defer func() {
		if closeErr := influxClient.Close(); closeErr != nil {
			log.Error("error closing InfluxDB", "error", closeErr)
		}
	}()

	if bootErr := controller.Boot(ctx); bootErr != nil {
		return fmt.Errorf("booting: %w", bootErr)
	}

	link := newRemoteLink(cfg, ps, pairings, controller, dispatcher, log.Component("remote"))
	controller.OnProvisioned(link.start)
	go awaitProvisioning(ctx, provisioner, controller, link, log)

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	link.close()
	if shutdownErr := controller.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("error recording shutdown", "error", shutdownErr)
	}

	log.Info("PowerStrip Core stopped")
	return nil
}

// openDriver selects the output driver named in config.
func openDriver(cfg *config.Config) (output.Driver, error) {
	switch cfg.GPIO.Driver {
	case "memory":
		return output.NewMemoryDriver(), nil
	default:
		return output.OpenChip(cfg.GPIO.Chip)
	}
}

// startTelemetry connects to InfluxDB when enabled and subscribes a
// recorder to the registry and the lifecycle. It returns nil when
// telemetry is disabled or unreachable; the strip runs without it.
func startTelemetry(ctx context.Context, cfg *config.Config, log *logging.Logger,
	reg *characteristic.Registry, controller *lifecycle.Controller) *influxdb.Client {
	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
		return nil
	case err != nil:
		log.Warn("InfluxDB unavailable, telemetry off", "error", err)
		return nil
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})

	recorder := telemetry.NewRecorder(cfg.Device.ID, client)
	reg.AddNotifier(recorder)
	controller.AddObserver(recorder)

	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client
}

// awaitProvisioning blocks until broker credentials exist, then moves the
// lifecycle on, which starts the remote link.
func awaitProvisioning(ctx context.Context, provisioner *provisioning.FileProvisioner,
	controller *lifecycle.Controller, link *remoteLink, log *logging.Logger) {
	creds, err := provisioner.Wait(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error("provisioning wait failed", "error", err)
		}
		return
	}

	link.setCredentials(creds)
	if err := controller.Provisioned(ctx); err != nil {
		log.Warn("provisioning not applied", "error", err)
	}
}
