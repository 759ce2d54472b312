package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// Config is the root configuration structure for the VTX control core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
	VTX      VTXConfig      `yaml:"vtx"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	// Enabled turns the broker connection on. The control surface and the
	// mqtt driver both need it; the sim driver runs without.
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MetricsConfig contains the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// VTXConfig contains transmitter control settings.
type VTXConfig struct {
	// Driver selects the transmitter implementation: "sim" or "mqtt".
	Driver string `yaml:"driver"`

	// DeviceID names the remote transmitter for the mqtt driver.
	DeviceID string `yaml:"device_id"`

	// TickInterval is the main-loop period in milliseconds. The core
	// rate-limits itself, so this only bounds housekeeping latency.
	TickInterval int `yaml:"tick_interval"`

	// StatusInterval is how often status is published, in seconds.
	StatusInterval int `yaml:"status_interval"`

	// CommandQueue bounds the mqtt driver's outbound command queue.
	CommandQueue int `yaml:"command_queue"`

	// Defaults seed the desired settings when none are stored.
	Defaults vtx.Settings `yaml:"defaults"`

	// Capability is what the transmitter supports. The simulator takes it
	// as-is; for the mqtt driver it must match the remote device.
	Capability CapabilityConfig `yaml:"capability"`

	Sim SimConfig `yaml:"sim"`
}

// CapabilityConfig mirrors vtx.Capability.
type CapabilityConfig struct {
	DeviceType   string `yaml:"device_type"`
	BandCount    uint8  `yaml:"band_count"`
	ChannelCount uint8  `yaml:"channel_count"`
	PowerCount   uint8  `yaml:"power_count"`
}

// SimConfig shapes the simulated transmitter.
type SimConfig struct {
	NoFrequency bool `yaml:"no_frequency"`
	NoPitMode   bool `yaml:"no_pit_mode"`
}

// Type parses the configured device type name. Unrecognised names
// map to vtx.DeviceTypeUnknown.
func (c CapabilityConfig) Type() vtx.DeviceType {
	switch strings.ToLower(c.DeviceType) {
	case "rtc6705":
		return vtx.DeviceTypeRTC6705
	case "smartaudio":
		return vtx.DeviceTypeSmartAudio
	case "tramp":
		return vtx.DeviceTypeTramp
	case "unsupported":
		return vtx.DeviceTypeUnsupported
	default:
		return vtx.DeviceTypeUnknown
	}
}

// Capability converts to the core descriptor.
func (c CapabilityConfig) Capability() vtx.Capability {
	return vtx.Capability{
		BandCount:    c.BandCount,
		ChannelCount: c.ChannelCount,
		PowerCount:   c.PowerCount,
	}
}

// Driver names.
const (
	DriverSim  = "sim"
	DriverMQTT = "mqtt"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: VTXCORE_SECTION_KEY
// For example: VTXCORE_DATABASE_PATH, VTXCORE_VTX_DRIVER
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/vtxcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "vtxcore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Metrics: MetricsConfig{
			Address: ":9108",
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				Path:       "./logs/vtxcore.log",
				MaxSize:    50,
				MaxBackups: 5,
				MaxAge:     28,
				Compress:   true,
			},
		},
		VTX: VTXConfig{
			Driver:         DriverSim,
			DeviceID:       "vtx-1",
			TickInterval:   10,
			StatusInterval: 5,
			CommandQueue:   32,
			Defaults:       vtx.DefaultSettings(),
			Capability: CapabilityConfig{
				DeviceType:   "smartaudio",
				BandCount:    vtx.BandCount,
				ChannelCount: vtx.ChannelCount,
				PowerCount:   vtx.PowerCount,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: VTXCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("VTXCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("VTXCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("VTXCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("VTXCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("VTXCORE_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("VTXCORE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Metrics
	if v := os.Getenv("VTXCORE_METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Address = v
	}

	// Logging
	if v := os.Getenv("VTXCORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// VTX
	if v := os.Getenv("VTXCORE_VTX_DRIVER"); v != "" {
		cfg.VTX.Driver = v
	}
	if v := os.Getenv("VTXCORE_VTX_DEVICE_ID"); v != "" {
		cfg.VTX.DeviceID = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		errs = append(errs, "metrics.address is required when metrics are enabled")
	}

	switch c.VTX.Driver {
	case DriverSim:
	case DriverMQTT:
		if !c.MQTT.Enabled {
			errs = append(errs, "vtx.driver mqtt requires mqtt.enabled")
		}
		if c.VTX.DeviceID == "" {
			errs = append(errs, "vtx.device_id is required for the mqtt driver")
		} else if strings.ContainsAny(c.VTX.DeviceID, "/+#") {
			errs = append(errs, "vtx.device_id must not contain MQTT topic separators or wildcards")
		}
	default:
		errs = append(errs, fmt.Sprintf("vtx.driver must be %q or %q", DriverSim, DriverMQTT))
	}
	if c.VTX.TickInterval < 1 {
		errs = append(errs, "vtx.tick_interval must be at least 1ms")
	}
	if c.VTX.StatusInterval < 1 {
		errs = append(errs, "vtx.status_interval must be at least 1s")
	}
	if c.VTX.CommandQueue < 1 {
		errs = append(errs, "vtx.command_queue must be at least 1")
	}
	if capability := c.VTX.Capability; capability.BandCount == 0 || capability.BandCount > vtx.MaxBand ||
		capability.ChannelCount == 0 || capability.ChannelCount > vtx.MaxChannel {
		errs = append(errs, fmt.Sprintf("vtx.capability must have 1-%d bands and 1-%d channels", vtx.MaxBand, vtx.MaxChannel))
	}
	if err := c.VTX.Defaults.Validate(); err != nil {
		errs = append(errs, "vtx.defaults: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetTickInterval returns the main-loop period as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.VTX.TickInterval) * time.Millisecond
}

// GetStatusInterval returns the status publication period as a Duration.
func (c *Config) GetStatusInterval() time.Duration {
	return time.Duration(c.VTX.StatusInterval) * time.Second
}
