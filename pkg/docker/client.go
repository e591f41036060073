// Package docker drives the docker CLI on the local host. It implements the
// engine daemon interfaces, short-circuits mutating calls in dry-run mode
// and classifies daemon failures from stderr.
package docker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/openfroyo/junoctl/pkg/engine"
	"github.com/openfroyo/junoctl/pkg/runner"
	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// DefaultBinary is the docker CLI executable.
const DefaultBinary = "docker"

// Options configures a Client.
type Options struct {
	// Binary is the docker executable, DefaultBinary when empty.
	Binary string

	// DryRun announces mutating calls instead of executing them.
	DryRun bool

	// Runner executes commands, runner.ExecRunner when nil.
	Runner runner.CommandRunner

	// Logger receives dry-run announcements and diagnostics.
	Logger *telemetry.Logger
}

// Client is a docker CLI client.
type Client struct {
	bin    string
	dryRun bool
	runner runner.CommandRunner
	logger *telemetry.Logger

	mu      sync.Mutex
	planned []string
}

var _ engine.Daemon = (*Client)(nil)

// New creates a client.
func New(opts Options) *Client {
	c := &Client{
		bin:    opts.Binary,
		dryRun: opts.DryRun,
		runner: opts.Runner,
		logger: opts.Logger,
	}
	if c.bin == "" {
		c.bin = DefaultBinary
	}
	if c.runner == nil {
		c.runner = runner.ExecRunner{}
	}
	if c.logger == nil {
		c.logger = telemetry.NewNopLogger()
	}
	c.logger = c.logger.NewComponentLogger("docker")
	return c
}

// DryRun reports whether mutating calls are announced instead of run.
func (c *Client) DryRun() bool {
	return c.dryRun
}

// Planned returns the command lines announced in dry-run mode, in order.
func (c *Client) Planned() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.planned...)
}

func (c *Client) command(args ...string) runner.Command {
	return runner.Command{Name: c.bin, Args: args}
}

// query runs a read-only command. It executes in dry-run mode too.
func (c *Client) query(ctx context.Context, op, resource string, args ...string) (*runner.Result, error) {
	var res *runner.Result
	err := telemetry.RecordDaemonOperation(ctx, op, func(ctx context.Context) error {
		var runErr error
		res, runErr = c.runner.Run(ctx, c.command(args...))
		return classify(op, resource, res, runErr)
	})
	return res, err
}

// mutate runs a state-changing command, or announces it in dry-run mode.
func (c *Client) mutate(ctx context.Context, op, resource string, args ...string) error {
	cmd := c.command(args...)
	if c.dryRun {
		c.announce(cmd)
		return nil
	}

	_, err := c.query(ctx, op, resource, args...)
	return err
}

// announce records and logs a command that dry-run mode suppressed.
func (c *Client) announce(cmd runner.Command) {
	line := cmd.String()
	c.mu.Lock()
	c.planned = append(c.planned, line)
	c.mu.Unlock()
	c.logger.Infof("[DRY-RUN] Would run: %s", line)
}

// classify maps a finished docker invocation to a classified error.
func classify(op, resource string, res *runner.Result, runErr error) error {
	if runErr != nil {
		return engine.NewDaemonUnavailableError("docker invocation failed", runErr).
			WithOperation(op).
			WithResource(resource).
			WithCode(engine.ErrCodeExecFailed)
	}
	if res == nil || res.ExitCode == 0 {
		return nil
	}

	stderr := res.StderrString()
	cause := errors.New(stderr)
	if stderr == "" {
		cause = fmt.Errorf("exit status %d", res.ExitCode)
	}

	lower := strings.ToLower(stderr)
	var e *engine.EngineError
	switch {
	case strings.Contains(lower, "no such"), strings.Contains(lower, "not found"):
		e = engine.NewNotFoundError("resource does not exist", cause).WithCode(engine.ErrCodeNotFound)
	case strings.Contains(lower, "in use"),
		strings.Contains(lower, "being used"),
		strings.Contains(lower, "active endpoints"):
		e = engine.NewInUseError("resource is in use", cause).WithCode(engine.ErrCodeInUse)
	default:
		e = engine.NewDaemonUnavailableError("docker exited nonzero", cause).WithCode(engine.ErrCodeExitStatus)
	}
	return e.WithOperation(op).WithResource(resource).WithDetail("exit_code", res.ExitCode)
}
