package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vinayprograms/taskboard/logging"
	"github.com/vinayprograms/taskboard/report"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Reminder.Interval.Duration != 60*time.Second {
		t.Errorf("interval = %v, want 60s", cfg.Reminder.Interval)
	}
	if cfg.LogLevel() != logging.LevelInfo {
		t.Errorf("level = %v, want INFO", cfg.LogLevel())
	}
	if cfg.Bus.BufferSize != 256 || !cfg.Search.Enabled || cfg.ReportFormat() != report.FormatText {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "taskboard.toml", `
[reminder]
interval = "30s"

[log]
level = "debug"

[bus]
buffer_size = 16

[search]
enabled = false

[report]
format = "yaml"
`)

	cfg, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Reminder.Interval.Duration != 30*time.Second {
		t.Errorf("interval = %v", cfg.Reminder.Interval)
	}
	if cfg.LogLevel() != logging.LevelDebug {
		t.Errorf("level = %v", cfg.LogLevel())
	}
	if cfg.Bus.BufferSize != 16 || cfg.Search.Enabled || cfg.ReportFormat() != report.FormatYAML {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q, want %q", cfg.Source, path)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.toml", "[log]\nlevel = \"warn\"\n")

	cfg, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Reminder.Interval.Duration != 60*time.Second || cfg.Bus.BufferSize != 256 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFile_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.toml", "[reminder]\ninterval = \"30s\"\n[bus]\nbuffer_size = 16\n")
	envFile := writeFile(t, dir, ".env", "TASKBOARD_REMINDER_INTERVAL=10s\nTASKBOARD_BUS_BUFFER_SIZE=8\n")

	// Process environment beats .env, .env beats the file
	t.Setenv("TASKBOARD_BUS_BUFFER_SIZE", "4")

	cfg, err := LoadFile(path, envFile)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Reminder.Interval.Duration != 10*time.Second {
		t.Errorf("interval = %v, want 10s from .env", cfg.Reminder.Interval)
	}
	if cfg.Bus.BufferSize != 4 {
		t.Errorf("buffer = %d, want 4 from environment", cfg.Bus.BufferSize)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("TASKBOARD_LOG_LEVEL", "error")
	t.Setenv("TASKBOARD_SEARCH_ENABLED", "false")
	t.Setenv("TASKBOARD_REPORT_FORMAT", "json")

	cfg, err := loadDefaultsOnly(t)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.LogLevel() != logging.LevelError || cfg.Search.Enabled || cfg.ReportFormat() != report.FormatJSON {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

// loadDefaultsOnly loads with no file by running in an empty directory.
func loadDefaultsOnly(t *testing.T) (Config, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	return Load("")
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"bad duration", "[reminder]\ninterval = \"soon\"\n", nil},
		{"zero interval", "[reminder]\ninterval = \"0s\"\n", nil},
		{"bad level", "[log]\nlevel = \"loud\"\n", nil},
		{"bad buffer", "[bus]\nbuffer_size = 0\n", nil},
		{"bad format", "[report]\nformat = \"pdf\"\n", nil},
		{"unknown key", "[reminder]\nintervall = \"5s\"\n", nil},
		{"bad env bool", "", map[string]string{"TASKBOARD_SEARCH_ENABLED": "maybe"}},
		{"bad env int", "", map[string]string{"TASKBOARD_BUS_BUFFER_SIZE": "lots"}},
		{"bad protocol", "[telemetry]\nprotocol = \"udp\"\n", nil},
		{"bad env telemetry bool", "", map[string]string{"TASKBOARD_TELEMETRY_ENABLED": "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeFile(t, dir, "bad.toml", tt.content)
			if _, err := LoadFile(path, ""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile_MissingExplicitPath(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"), ""); err == nil {
		t.Error("explicit missing file should fail")
	}
}

func TestValidate_ErrInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Bus.BufferSize = -1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
	}
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText error: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("Duration = %v", d.Duration)
	}
	out, _ := d.MarshalText()
	if string(out) != "1m30s" {
		t.Errorf("MarshalText = %q", out)
	}
}

func TestLoadFile_Telemetry(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.toml", `
[telemetry]
enabled = true
protocol = "http"
endpoint = "collector:4318"
insecure = true
`)
	t.Setenv("TASKBOARD_TELEMETRY_DEBUG", "true")

	cfg, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	tel := cfg.Telemetry
	if !tel.Enabled || tel.Protocol != "http" || tel.Endpoint != "collector:4318" || !tel.Insecure || !tel.Debug {
		t.Errorf("telemetry = %+v", tel)
	}

	pc := tel.ProviderConfig("1.2.3")
	if pc.ServiceVersion != "1.2.3" || pc.Endpoint != "collector:4318" || pc.Protocol != "http" || !pc.Insecure || !pc.Debug {
		t.Errorf("ProviderConfig = %+v", pc)
	}
}

func TestDefault_TelemetryDisabled(t *testing.T) {
	cfg := Default()
	if cfg.Telemetry.Enabled {
		t.Error("telemetry should be off by default")
	}
	if cfg.Telemetry.Protocol != "grpc" {
		t.Errorf("protocol = %q, want grpc", cfg.Telemetry.Protocol)
	}
	if cfg.Report.Dir != "." {
		t.Errorf("report dir = %q, want .", cfg.Report.Dir)
	}
}

func TestLoadFile_TelemetryEnv(t *testing.T) {
	t.Setenv("TASKBOARD_TELEMETRY_ENABLED", "1")
	t.Setenv("TASKBOARD_TELEMETRY_PROTOCOL", "http")
	t.Setenv("TASKBOARD_TELEMETRY_ENDPOINT", "localhost:4318")
	t.Setenv("TASKBOARD_REPORT_DIR", "out")

	cfg, err := loadDefaultsOnly(t)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Protocol != "http" || cfg.Telemetry.Endpoint != "localhost:4318" {
		t.Errorf("telemetry env not applied: %+v", cfg.Telemetry)
	}
	if cfg.Report.Dir != "out" {
		t.Errorf("report dir = %q, want out", cfg.Report.Dir)
	}
}
