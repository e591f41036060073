package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/openfroyo/junoctl/pkg/config"
	"github.com/openfroyo/junoctl/pkg/docker"
	"github.com/openfroyo/junoctl/pkg/telemetry"
)

var (
	// Global flags
	configPath    string
	logLevel      string
	logFormat     string
	metricsFile   string
	traceExporter string
)

// ExitError carries a specific process exit code, such as the status of the
// compose services started by run.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// env is what a command needs once configuration and telemetry are set up.
type env struct {
	cfg *config.Config
	tel *telemetry.Telemetry
}

// current is set by the root pre-run hook.
var current *env

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	err := rootCmd.ExecuteContext(ctx)

	if current != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if shutdownErr := current.tel.Shutdown(shutdownCtx); shutdownErr != nil {
			current.tel.Logger.WithError(shutdownErr).Warn("Telemetry shutdown failed")
		}
		current = nil
	}
	return err
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "junoctl",
		Short: "Juno edge device deployment manager",
		Long: `junoctl manages the Juno container stack on an edge device.

It tears down everything the compose manifests own (containers, images,
volumes and networks, including project-prefixed names), reports what is
left, provisions the host and launches the runtime services.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initEnv(cmd, version)
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace", "", "trace exporter (stdout, otlp, none)")

	rootCmd.AddCommand(newCleanupCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newSetupCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}

// loadConfig reads the configuration file and applies flag overrides. An
// explicit --config must exist; the default file is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultFile
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	cfg, err := config.NewLoader().Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	switch {
	case flags.Changed("log-level"):
		cfg.Telemetry.LogLevel = logLevel
	case os.Getenv("LOG_LEVEL") != "":
		cfg.Telemetry.LogLevel = os.Getenv("LOG_LEVEL")
	}
	if flags.Changed("log-format") {
		cfg.Telemetry.LogFormat = logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = metricsFile
	}
	if flags.Changed("trace") {
		cfg.Telemetry.TraceExporter = traceExporter
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initEnv(cmd *cobra.Command, version string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	tc := cfg.TelemetryOptions(version)
	tc.Logging.NoColor = !term.IsTerminal(int(os.Stderr.Fd()))

	tel, err := telemetry.NewTelemetry(tc)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	current = &env{cfg: cfg, tel: tel}
	cmd.SetContext(tel.WithContext(cmd.Context()))
	return nil
}

// daemon returns a docker client for the configured binary.
func (e *env) daemon(dryRun bool) *docker.Client {
	return docker.New(docker.Options{
		Binary: e.cfg.Compose.Binary,
		DryRun: dryRun,
		Logger: e.tel.Logger,
	})
}

// manifests resolves the manifest paths from flags, falling back to the
// configuration.
func (e *env) manifests(base, runtime string) (string, string) {
	if base == "" {
		base = e.cfg.Compose.Base
	}
	if runtime == "" {
		runtime = e.cfg.Compose.Runtime
	}
	return base, runtime
}

func requireEnv() (*env, error) {
	if current == nil {
		return nil, errors.New("command environment not initialized")
	}
	return current, nil
}
