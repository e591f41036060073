package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Defaults()
	if err != nil {
		t.Fatalf("Defaults() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.Projects, []string{"juno", "helios"}) {
		t.Errorf("Projects = %v, want [juno helios]", cfg.Projects)
	}
	if cfg.Compose.Binary != "docker" {
		t.Errorf("Compose.Binary = %q, want docker", cfg.Compose.Binary)
	}
	if cfg.Compose.Runtime != "docker-compose.runtime.yml" {
		t.Errorf("Compose.Runtime = %q", cfg.Compose.Runtime)
	}
	if cfg.Setup.PowerMode != "0" {
		t.Errorf("Setup.PowerMode = %q, want 0", cfg.Setup.PowerMode)
	}
	if !reflect.DeepEqual(cfg.Launch.Services, []string{"stt-stream", "llm", "tts"}) {
		t.Errorf("Launch.Services = %v", cfg.Launch.Services)
	}
	if cfg.Telemetry.LogLevel != "info" || cfg.Telemetry.TraceExporter != "none" {
		t.Errorf("Telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoader_Parse(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name      string
		content   string
		wantErr   bool
		checkFunc func(*testing.T, *Config)
	}{
		{
			name: "partial override keeps defaults",
			content: `
projects: ["juno", "helios", "lab"]
compose: runtime: "docker-compose.jetson.yml"
`,
			checkFunc: func(t *testing.T, c *Config) {
				if len(c.Projects) != 3 {
					t.Errorf("expected 3 projects, got %v", c.Projects)
				}
				if c.Compose.Runtime != "docker-compose.jetson.yml" {
					t.Errorf("runtime not overridden: %q", c.Compose.Runtime)
				}
				if c.Compose.Base != "docker-compose.yml" {
					t.Errorf("base default lost: %q", c.Compose.Base)
				}
			},
		},
		{
			name: "telemetry overrides",
			content: `
telemetry: {
	log_level:      "debug"
	log_format:     "json"
	trace_exporter: "otlp"
	trace_endpoint: "collector:4317"
}
`,
			checkFunc: func(t *testing.T, c *Config) {
				tc := c.TelemetryOptions("1.2.3")
				if !tc.Tracing.Enabled || tc.Tracing.Endpoint != "collector:4317" {
					t.Errorf("tracing not configured: %+v", tc.Tracing)
				}
				if tc.Logging.Format != "json" || tc.Logging.Level != "debug" {
					t.Errorf("logging not configured: %+v", tc.Logging)
				}
				if tc.ServiceVersion != "1.2.3" {
					t.Errorf("ServiceVersion = %q", tc.ServiceVersion)
				}
			},
		},
		{
			name:    "empty project list fails validation",
			content: `projects: []`,
			wantErr: true,
		},
		{
			name:    "otlp without endpoint fails validation",
			content: `telemetry: trace_exporter: "otlp"`,
			wantErr: true,
		},
		{
			name:    "non-numeric power mode",
			content: `setup: power_mode: "max"`,
			wantErr: true,
		},
		{
			name:    "unknown log format",
			content: `telemetry: log_format: "xml"`,
			wantErr: true,
		},
		{
			name:    "invalid CUE syntax",
			content: `projects: [`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loader.Parse([]byte(tt.content), "juno.cue")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.checkFunc != nil && cfg != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoader_ParseReportsPosition(t *testing.T) {
	_, err := NewLoader().Parse([]byte("setup: power_mode: \"max\"\n"), "juno.cue")

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %T: %v", err, err)
	}
	if len(loadErr.Errors) == 0 {
		t.Fatal("expected at least one error")
	}
	if !strings.HasPrefix(err.Error(), "configuration errors: ") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader()

	cfg, err := loader.Load(filepath.Join(dir, DefaultFile))
	if err != nil {
		t.Fatalf("missing file should yield defaults: %v", err)
	}
	if len(cfg.Patterns) != 2 {
		t.Errorf("Patterns = %v", cfg.Patterns)
	}

	path := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(path, []byte(`patterns: ["juno"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = loader.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.Patterns, []string{"juno"}) {
		t.Errorf("Patterns = %v, want [juno]", cfg.Patterns)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg, err := NewLoader().Defaults()
	if err != nil {
		t.Fatal(err)
	}

	cfg.Compose.Base = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected empty base manifest to fail validation")
	}
}
