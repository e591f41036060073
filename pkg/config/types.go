package config

import (
	"fmt"
	"strings"

	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// Config is the decoded junoctl configuration.
type Config struct {
	// Projects are the known compose project names. Merged views are
	// resolved and project-prefixed names removed under each of them.
	Projects []string `json:"projects" validate:"required,min=1,dive,required"`

	// Patterns select live resources during verification.
	Patterns []string `json:"patterns" validate:"required,min=1,dive,required"`

	Compose   ComposeConfig   `json:"compose"`
	Setup     SetupConfig     `json:"setup"`
	Launch    LaunchConfig    `json:"launch"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// ComposeConfig locates the docker binary and the layered manifests.
type ComposeConfig struct {
	Binary  string `json:"binary" validate:"required"`
	Base    string `json:"base" validate:"required"`
	Runtime string `json:"runtime" validate:"required"`
}

// SetupConfig drives host provisioning.
type SetupConfig struct {
	// PowerMode is the nvpmodel index.
	PowerMode string `json:"power_mode" validate:"required,numeric"`

	// User receives docker group membership; empty means the caller.
	User string `json:"user"`

	StateFile string `json:"state_file" validate:"required"`
}

// LaunchConfig drives the runtime launcher.
type LaunchConfig struct {
	Dir      string   `json:"dir" validate:"required"`
	Services []string `json:"services" validate:"required,min=1,dive,required"`
	Hook     string   `json:"hook"`
}

// TelemetryConfig selects logging, metrics and tracing output.
type TelemetryConfig struct {
	LogLevel      string `json:"log_level" validate:"required,oneof=trace debug info warn error"`
	LogFormat     string `json:"log_format" validate:"required,oneof=console json"`
	MetricsFile   string `json:"metrics_file"`
	TraceExporter string `json:"trace_exporter" validate:"required,oneof=otlp stdout none"`
	TraceEndpoint string `json:"trace_endpoint" validate:"required_if=TraceExporter otlp"`
}

// Validate checks the struct tags. Call it again after applying flag
// overrides.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// TelemetryOptions builds the telemetry configuration for a binary version.
func (c *Config) TelemetryOptions(version string) *telemetry.Config {
	tc := telemetry.DefaultConfig()
	if version != "" {
		tc.ServiceVersion = version
	}
	tc.Logging.Level = c.Telemetry.LogLevel
	tc.Logging.Format = c.Telemetry.LogFormat
	tc.Metrics.TextfilePath = c.Telemetry.MetricsFile

	tc.Tracing.Exporter = c.Telemetry.TraceExporter
	tc.Tracing.Enabled = c.Telemetry.TraceExporter != "none"
	tc.Tracing.Endpoint = c.Telemetry.TraceEndpoint
	return tc
}

// ValidationError represents a validation error with location information.
type ValidationError struct {
	// File is the source file path.
	File string `json:"file,omitempty"`

	// Line is the line number (1-indexed).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-indexed).
	Column int `json:"column,omitempty"`

	// Message is the error message.
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	if e.File == "" {
		return e.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// LoadError carries every CUE error found in a configuration file.
type LoadError struct {
	Errors []ValidationError
}

func (e *LoadError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		msgs = append(msgs, v.String())
	}
	return "configuration errors: " + strings.Join(msgs, "; ")
}
