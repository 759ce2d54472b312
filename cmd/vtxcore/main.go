// vtxcore - video transmitter control core
//
// This is the main entry point. It loads configuration, restores the
// desired transmitter settings, registers a transmitter driver and runs the
// fixed-rate control loop that reconciles the device towards the desired
// settings and ramps output power after arming.
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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/vtx-control-core/internal/audit"
	"github.com/nerrad567/vtx-control-core/internal/control"
	"github.com/nerrad567/vtx-control-core/internal/drivers/mqttvtx"
	"github.com/nerrad567/vtx-control-core/internal/drivers/simvtx"
	"github.com/nerrad567/vtx-control-core/internal/infrastructure/config"
	"github.com/nerrad567/vtx-control-core/internal/infrastructure/database"
	"github.com/nerrad567/vtx-control-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/vtx-control-core/internal/infrastructure/logging"
	"github.com/nerrad567/vtx-control-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/vtx-control-core/internal/observability"
	"github.com/nerrad567/vtx-control-core/internal/settings"
	"github.com/nerrad567/vtx-control-core/internal/vtx"
	"github.com/nerrad567/vtx-control-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting vtxcore",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	defer log.Close()
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"output", cfg.Logging.Output,
	)

	// Database and desired settings
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS, migrations.Dir); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	store := vtx.NewSettingsStore(cfg.VTX.Defaults)
	settingsManager := settings.NewManager(settings.NewSQLiteRepository(db.DB), store)
	settingsManager.SetLogger(log)
	if bootErr := settingsManager.Bootstrap(ctx, cfg.VTX.Defaults); bootErr != nil {
		return fmt.Errorf("loading vtx settings: %w", bootErr)
	}

	// Core
	arm := &vtx.ArmFlag{}
	registry := vtx.NewRegistry()
	registry.SetLogger(log)
	scheduler := vtx.NewScheduler(registry, store, arm)
	scheduler.SetLogger(log)

	var observers vtx.Observers

	// Metrics (optional)
	var collector *observability.VTXCollector
	if cfg.Metrics.Enabled {
		promRegistry := prometheus.NewRegistry()
		collector, err = observability.NewVTXCollector(promRegistry)
		if err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		observers = append(observers, collector)

		stopMetrics := serveMetrics(cfg.Metrics, collector, log)
		defer stopMetrics()
	} else {
		log.Info("metrics disabled")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, cfg.VTX.DeviceID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		observers = append(observers, influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	if len(observers) > 0 {
		registry.SetObserver(observers)
		scheduler.SetObserver(observers)
	}

	// MQTT (optional with the sim driver)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled, control surface unavailable")
	}

	// Transmitter driver
	device, stopDevice, err := startDevice(ctx, cfg, mqttClient, log)
	if err != nil {
		return fmt.Errorf("starting vtx driver: %w", err)
	}
	defer stopDevice()
	registry.Register(device)

	// Control surface
	if mqttClient != nil {
		surface := control.New(mqttClient, control.Deps{
			Settings:  settingsManager,
			Device:    registry,
			Scheduler: scheduler,
			Arm:       arm,
			Audit:     audit.NewSQLiteRepository(db.DB),
		}, mqttClient.QoS(), cfg.GetStatusInterval())
		surface.SetLogger(log)
		if startErr := surface.Start(ctx); startErr != nil {
			return fmt.Errorf("starting control surface: %w", startErr)
		}
		defer surface.Stop()
		go surface.Run(ctx)
		log.Info("control surface started")
	}

	if collector != nil || influxClient != nil {
		go runTelemetry(ctx, cfg.GetStatusInterval(), telemetry{
			scheduler: scheduler,
			registry:  registry,
			arm:       arm,
			collector: collector,
			influx:    influxClient,
		})
	}

	log.Info("initialisation complete, entering control loop",
		"driver", cfg.VTX.Driver,
		"tick_interval", cfg.GetTickInterval(),
	)
	runLoop(ctx, scheduler, cfg.GetTickInterval())

	log.Info("shutdown signal received, cleaning up")
	registry.Register(nil)

	log.Info("vtxcore stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses VTXCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("VTXCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// clockUs converts elapsed time since start into the core's wrapping
// microsecond clock.
func clockUs(start, now time.Time) vtx.TimeUs {
	return vtx.TimeUs(uint32(now.Sub(start).Microseconds())) // #nosec G115 -- wraps by design
}

// runLoop calls the scheduler on every tick until ctx is cancelled.
func runLoop(ctx context.Context, scheduler *vtx.Scheduler, interval time.Duration) {
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			scheduler.Process(clockUs(start, now))
		}
	}
}

// startDevice builds the configured driver. The returned stop function
// releases driver resources and is never nil.
func startDevice(ctx context.Context, cfg *config.Config, mqttClient *mqtt.Client, log *logging.Logger) (vtx.Device, func(), error) {
	capability := cfg.VTX.Capability

	switch cfg.VTX.Driver {
	case config.DriverSim:
		opts := simvtx.Options{
			DeviceType:  capability.Type(),
			Capability:  capability.Capability(),
			Band:        vtx.MinBand,
			Channel:     vtx.MinChannel,
			NoFrequency: cfg.VTX.Sim.NoFrequency,
			NoPitMode:   cfg.VTX.Sim.NoPitMode,
		}
		device, _ := simvtx.Build(opts)
		log.Info("simulated vtx ready",
			"device_type", opts.DeviceType,
			"bands", opts.Capability.BandCount,
			"channels", opts.Capability.ChannelCount,
			"powers", opts.Capability.PowerCount,
		)
		return device, func() {}, nil

	case config.DriverMQTT:
		if mqttClient == nil {
			return nil, nil, errors.New("mqtt driver requires an MQTT connection")
		}
		device := mqttvtx.New(mqttClient, mqttvtx.Options{
			DeviceID:   cfg.VTX.DeviceID,
			DeviceType: capability.Type(),
			Capability: capability.Capability(),
			QoS:        mqttClient.QoS(),
			QueueSize:  cfg.VTX.CommandQueue,
			StaleAfter: 3 * cfg.GetStatusInterval(),
		})
		device.SetLogger(log)
		if err := device.Start(ctx); err != nil {
			return nil, nil, err
		}
		log.Info("mqtt vtx ready", "device_id", cfg.VTX.DeviceID)
		return device, device.Stop, nil

	default:
		return nil, nil, fmt.Errorf("unknown vtx driver %q", cfg.VTX.Driver)
	}
}

// serveMetrics starts the Prometheus endpoint and returns a function that
// shuts it down.
func serveMetrics(cfg config.MetricsConfig, collector *observability.VTXCollector, log *logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, collector.Handler())

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	log.Info("metrics endpoint listening", "address", cfg.Address, "path", cfg.Path)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("error stopping metrics server", "error", err)
		}
	}
}

// telemetry groups the periodic state sinks.
type telemetry struct {
	scheduler *vtx.Scheduler
	registry  *vtx.Registry
	arm       vtx.ArmSource
	collector *observability.VTXCollector
	influx    *influxdb.Client
}

// runTelemetry samples core status every interval until ctx is cancelled.
func runTelemetry(ctx context.Context, interval time.Duration, t telemetry) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := t.scheduler.Status()
			t.collector.ObserveStatus(st)
			if t.influx != nil {
				t.influx.WriteState(st, t.registry, t.arm.IsArmed())
			}
		}
	}
}
