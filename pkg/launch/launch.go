// Package launch starts the Juno runtime services: it re-runs host setup
// when the recorded provisioning is missing or outdated, renders the layered
// manifests into one file and brings the services up in the foreground.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/openfroyo/junoctl/pkg/docker"
	"github.com/openfroyo/junoctl/pkg/runner"
	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// DefaultServices are the runtime services brought up by Run.
var DefaultServices = []string{"stt-stream", "llm", "tts"}

// DefaultHook is the echo hook run between pull and up, relative to Dir.
const DefaultHook = "setup-echo.sh"

// ErrManifestMissing is returned when a required manifest does not exist.
var ErrManifestMissing = errors.New("compose file not found")

// Composer is the compose surface the launcher drives.
type Composer interface {
	RenderConfig(ctx context.Context, project string, files []string, w io.Writer) error
	ComposePull(ctx context.Context, project string, files, services []string, s docker.Streams) error
	ComposeUp(ctx context.Context, project string, files, services []string, s docker.Streams) (int, error)
}

var _ Composer = (*docker.Client)(nil)

// Options configures a launch.
type Options struct {
	// Dir is the deployment directory holding manifests, hook and marker.
	Dir string

	BaseFile    string
	RuntimeFile string
	StateFile   string

	// Hook is the echo hook path. It is skipped when missing.
	Hook string

	// Project defaults to ProjectName(Dir).
	Project  string
	Services []string

	// Setup provisions the host when the marker is stale.
	Setup func(ctx context.Context) error

	Runner  runner.CommandRunner
	Streams docker.Streams
	Logger  *telemetry.Logger
}

// Launcher starts the runtime services.
type Launcher struct {
	compose Composer
	opts    Options
	logger  *telemetry.Logger
}

// New creates a launcher. Relative paths are resolved against Dir.
func New(compose Composer, opts Options) *Launcher {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if abs, err := filepath.Abs(opts.Dir); err == nil {
		opts.Dir = abs
	}
	resolve := func(p, def string) string {
		if p == "" {
			p = def
		}
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(opts.Dir, p)
	}
	opts.BaseFile = resolve(opts.BaseFile, "docker-compose.yml")
	opts.RuntimeFile = resolve(opts.RuntimeFile, "docker-compose.runtime.yml")
	opts.StateFile = resolve(opts.StateFile, ".setup_complete.toml")
	opts.Hook = resolve(opts.Hook, DefaultHook)

	if opts.Project == "" {
		opts.Project = ProjectName(opts.Dir, os.Getenv)
	}
	if len(opts.Services) == 0 {
		opts.Services = DefaultServices
	}
	if opts.Runner == nil {
		opts.Runner = runner.ExecRunner{}
	}
	if opts.Streams.Stdout == nil {
		opts.Streams.Stdout = os.Stdout
	}
	if opts.Streams.Stderr == nil {
		opts.Streams.Stderr = os.Stderr
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}

	return &Launcher{
		compose: compose,
		opts:    opts,
		logger:  logger.NewComponentLogger("launch").WithProject(opts.Project),
	}
}

// ProjectName returns COMPOSE_PROJECT_NAME when set, otherwise the base
// name of dir.
func ProjectName(dir string, getenv func(string) string) string {
	if name := getenv("COMPOSE_PROJECT_NAME"); name != "" {
		return name
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Base(dir)
}

// Run provisions if needed, starts the services and returns the compose up
// exit code. The rendered manifest is always removed.
func (l *Launcher) Run(ctx context.Context) (int, error) {
	if err := l.ensureSetup(ctx); err != nil {
		return 1, err
	}

	for _, f := range []string{l.opts.BaseFile, l.opts.RuntimeFile} {
		if _, err := os.Stat(f); err != nil {
			l.logger.Errorf("Compose file not found: %s", f)
			return 1, fmt.Errorf("%w: %s", ErrManifestMissing, f)
		}
	}

	combined, err := l.render(ctx)
	if err != nil {
		return 1, err
	}
	defer os.Remove(combined)

	files := []string{combined}
	l.logger.Infof("Pulling %v", l.opts.Services)
	if err := l.compose.ComposePull(ctx, l.opts.Project, files, l.opts.Services, l.opts.Streams); err != nil {
		return 1, fmt.Errorf("failed to pull runtime services: %w", err)
	}

	if err := l.runHook(ctx); err != nil {
		return 1, err
	}

	l.logger.Infof("Starting %v", l.opts.Services)
	return l.compose.ComposeUp(ctx, l.opts.Project, files, l.opts.Services, l.opts.Streams)
}

// render writes the merged manifest to a temporary file and returns its
// path.
func (l *Launcher) render(ctx context.Context) (string, error) {
	tmp, err := os.CreateTemp("", "juno-compose-*.yml")
	if err != nil {
		return "", fmt.Errorf("failed to create combined manifest: %w", err)
	}

	err = l.compose.RenderConfig(ctx, l.opts.Project, []string{l.opts.BaseFile, l.opts.RuntimeFile}, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (l *Launcher) runHook(ctx context.Context) error {
	if _, err := os.Stat(l.opts.Hook); err != nil {
		l.logger.Debugf("no echo hook at %s", l.opts.Hook)
		return nil
	}

	res, err := l.opts.Runner.Run(ctx, runner.Command{
		Name:   l.opts.Hook,
		Dir:    l.opts.Dir,
		Stdout: l.opts.Streams.Stdout,
		Stderr: l.opts.Streams.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", l.opts.Hook, err)
	}
	if !res.OK() {
		return fmt.Errorf("%s exited with status %d", l.opts.Hook, res.ExitCode)
	}
	return nil
}
