// Package config loads taskboard settings.
//
// Settings come from, in increasing precedence: built-in defaults, a TOML
// file, a .env file and the process environment. Environment variables use
// the TASKBOARD_ prefix:
//
//	TASKBOARD_REMINDER_INTERVAL=30s
//	TASKBOARD_LOG_LEVEL=debug
//	TASKBOARD_BUS_BUFFER_SIZE=64
//	TASKBOARD_SEARCH_ENABLED=false
//	TASKBOARD_REPORT_FORMAT=json
//	TASKBOARD_REPORT_DIR=reports
//	TASKBOARD_TELEMETRY_ENABLED=true
//	TASKBOARD_TELEMETRY_PROTOCOL=http
//	TASKBOARD_TELEMETRY_ENDPOINT=localhost:4318
//	TASKBOARD_TELEMETRY_INSECURE=true
//	TASKBOARD_TELEMETRY_DEBUG=true
//
// A matching TOML file:
//
//	[reminder]
//	interval = "30s"
//
//	[log]
//	level = "debug"
//
//	[telemetry]
//	enabled = true
//	protocol = "grpc"
//	endpoint = "localhost:4317"
//	insecure = true
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/vinayprograms/taskboard/errors"
	"github.com/vinayprograms/taskboard/logging"
	"github.com/vinayprograms/taskboard/report"
	"github.com/vinayprograms/taskboard/telemetry"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "TASKBOARD_"

// ErrInvalidConfig is returned when a setting is out of range or malformed.
var ErrInvalidConfig = errors.InvalidInput("invalid configuration")

// Duration is a time.Duration that decodes from strings like "60s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds every tunable setting.
type Config struct {
	Reminder  ReminderConfig  `toml:"reminder"`
	Log       LogConfig       `toml:"log"`
	Bus       BusConfig       `toml:"bus"`
	Search    SearchConfig    `toml:"search"`
	Report    ReportConfig    `toml:"report"`
	Telemetry TelemetryConfig `toml:"telemetry"`

	// Source is the file the config was read from, empty for defaults.
	Source string `toml:"-"`
}

// ReminderConfig configures the pending-task reminder.
type ReminderConfig struct {
	Interval Duration `toml:"interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// BusConfig configures the notification bus.
type BusConfig struct {
	BufferSize int `toml:"buffer_size"`
}

// SearchConfig configures the full-text index.
type SearchConfig struct {
	Enabled bool `toml:"enabled"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Format string `toml:"format"`

	// Dir is where saved reports go when no path is given.
	Dir string `toml:"dir"`
}

// TelemetryConfig configures OTLP trace export. Disabled by default.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Protocol string `toml:"protocol"` // grpc or http
	Endpoint string `toml:"endpoint"` // empty uses OTEL_EXPORTER_OTLP_ENDPOINT
	Insecure bool   `toml:"insecure"`
	Debug    bool   `toml:"debug"` // record task titles on spans
}

// ProviderConfig converts the section for telemetry.InitProvider.
func (t TelemetryConfig) ProviderConfig(version string) telemetry.ProviderConfig {
	return telemetry.ProviderConfig{
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: version,
		Endpoint:       t.Endpoint,
		Protocol:       t.Protocol,
		Insecure:       t.Insecure,
		Debug:          t.Debug,
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Reminder:  ReminderConfig{Interval: Duration{60 * time.Second}},
		Log:       LogConfig{Level: string(logging.LevelInfo)},
		Bus:       BusConfig{BufferSize: 256},
		Search:    SearchConfig{Enabled: true},
		Report:    ReportConfig{Format: string(report.FormatText), Dir: "."},
		Telemetry: TelemetryConfig{Protocol: telemetry.ProtocolGRPC},
	}
}

// StandardPaths returns the config file locations in order of priority.
func StandardPaths() []string {
	paths := []string{"taskboard.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "taskboard", "config.toml"))
	}
	return paths
}

// Load reads configuration from path, or from the first standard path that
// exists when path is empty. A .env file in the working directory is read if
// present.
func Load(path string) (Config, error) {
	return LoadFile(path, ".env")
}

// LoadFile is Load with an explicit .env location. A missing env file is not
// an error.
func LoadFile(path, envFile string) (Config, error) {
	cfg := Default()

	if path == "" {
		for _, p := range StandardPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, errors.WrapWithCode(err, errors.ErrCodeInvalidInput, "parse config "+path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, errors.Wrap(ErrInvalidConfig, fmt.Sprintf("unknown keys in %s: %s", path, strings.Join(keys, ", ")))
		}
		cfg.Source = path
	}

	dotenv := map[string]string{}
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			dotenv, err = godotenv.Read(envFile)
			if err != nil {
				return Config{}, errors.WrapWithCode(err, errors.ErrCodeInvalidInput, "read "+envFile)
			}
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from TASKBOARD_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "REMINDER_INTERVAL"); ok {
		if err := c.Reminder.Interval.UnmarshalText([]byte(v)); err != nil {
			return envError("REMINDER_INTERVAL", v, err)
		}
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvPrefix + "BUS_BUFFER_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError("BUS_BUFFER_SIZE", v, err)
		}
		c.Bus.BufferSize = n
	}
	if v, ok := lookup(EnvPrefix + "SEARCH_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("SEARCH_ENABLED", v, err)
		}
		c.Search.Enabled = b
	}
	if v, ok := lookup(EnvPrefix + "REPORT_FORMAT"); ok {
		c.Report.Format = v
	}
	if v, ok := lookup(EnvPrefix + "REPORT_DIR"); ok {
		c.Report.Dir = v
	}
	for name, dst := range map[string]*bool{
		"TELEMETRY_ENABLED":  &c.Telemetry.Enabled,
		"TELEMETRY_INSECURE": &c.Telemetry.Insecure,
		"TELEMETRY_DEBUG":    &c.Telemetry.Debug,
	} {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return envError(name, v, err)
			}
			*dst = b
		}
	}
	if v, ok := lookup(EnvPrefix + "TELEMETRY_PROTOCOL"); ok {
		c.Telemetry.Protocol = v
	}
	if v, ok := lookup(EnvPrefix + "TELEMETRY_ENDPOINT"); ok {
		c.Telemetry.Endpoint = v
	}
	return nil
}

func envError(name, value string, err error) error {
	return errors.Wrap(ErrInvalidConfig, fmt.Sprintf("%s%s=%q: %v", EnvPrefix, name, value, err))
}

// Validate checks every setting.
func (c Config) Validate() error {
	if c.Reminder.Interval.Duration <= 0 {
		return errors.Wrap(ErrInvalidConfig, "reminder.interval must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(ErrInvalidConfig, "log.level: "+err.Error())
	}
	if c.Bus.BufferSize <= 0 {
		return errors.Wrap(ErrInvalidConfig, "bus.buffer_size must be positive")
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		return errors.Wrap(ErrInvalidConfig, "report.format: "+err.Error())
	}
	if !telemetry.ValidProtocol(c.Telemetry.Protocol) {
		return errors.Wrap(ErrInvalidConfig, fmt.Sprintf("telemetry.protocol %q: use grpc or http", c.Telemetry.Protocol))
	}
	return nil
}

// LogLevel returns the parsed log level. Call after Validate.
func (c Config) LogLevel() logging.Level {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.LevelInfo
	}
	return level
}

// ReportFormat returns the parsed report format. Call after Validate.
func (c Config) ReportFormat() report.Format {
	f, err := report.ParseFormat(c.Report.Format)
	if err != nil {
		return report.FormatText
	}
	return f
}
