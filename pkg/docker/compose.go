package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/openfroyo/junoctl/pkg/runner"
	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// Streams receives live output of long-running compose commands.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

// composeArgs builds "compose -p project -f file..." followed by rest.
func composeArgs(project string, files []string, rest ...string) []string {
	args := []string{"compose", "-p", project}
	for _, f := range files {
		args = append(args, "-f", f)
	}
	return append(args, rest...)
}

// ResolveConfig renders the merged view of files under project. It is
// read-only and runs in dry-run mode too.
func (c *Client) ResolveConfig(ctx context.Context, project string, files []string) ([]byte, error) {
	res, err := c.query(ctx, "compose.config", project, composeArgs(project, files, "config")...)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// RenderConfig writes the merged view of files under project to w.
func (c *Client) RenderConfig(ctx context.Context, project string, files []string, w io.Writer) error {
	out, err := c.ResolveConfig(ctx, project, files)
	if err != nil {
		return fmt.Errorf("failed to render compose config for %s: %w", project, err)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write compose config: %w", err)
	}
	return nil
}

// ComposeDown tears down project, removing its volumes and orphans.
func (c *Client) ComposeDown(ctx context.Context, project string, files []string) error {
	return c.mutate(ctx, "compose.down", project,
		composeArgs(project, files, "down", "-v", "--remove-orphans")...)
}

// ComposePull pulls services, tolerating individual pull failures.
func (c *Client) ComposePull(ctx context.Context, project string, files, services []string, s Streams) error {
	args := composeArgs(project, files, append([]string{"pull", "--ignore-pull-failures"}, services...)...)
	code, err := c.stream(ctx, "compose.pull", project, args, s)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("compose pull exited with status %d", code)
	}
	return nil
}

// ComposeUp starts services in the foreground and returns the compose exit
// code once they stop.
func (c *Client) ComposeUp(ctx context.Context, project string, files, services []string, s Streams) (int, error) {
	args := composeArgs(project, files, append([]string{"up", "--remove-orphans"}, services...)...)
	return c.stream(ctx, "compose.up", project, args, s)
}

// stream runs a mutating command with live output and returns its exit
// code. Nonzero exits are not errors here; callers decide.
func (c *Client) stream(ctx context.Context, op, resource string, args []string, s Streams) (int, error) {
	cmd := c.command(args...)
	cmd.Stdout, cmd.Stderr = s.Stdout, s.Stderr

	if c.dryRun {
		c.announce(cmd)
		return 0, nil
	}

	var (
		res      *runner.Result
		startErr error
	)
	_ = telemetry.RecordDaemonOperation(ctx, op, func(ctx context.Context) error {
		var runErr error
		res, runErr = c.runner.Run(ctx, cmd)
		if runErr != nil {
			startErr = classify(op, resource, res, runErr)
			return startErr
		}
		if !res.OK() {
			return fmt.Errorf("exit status %d", res.ExitCode)
		}
		return nil
	})
	if startErr != nil {
		code := 1
		if res != nil && res.ExitCode != 0 {
			code = res.ExitCode
		}
		return code, startErr
	}
	return res.ExitCode, nil
}
