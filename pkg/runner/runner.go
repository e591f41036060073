// Package runner executes host commands for the daemon client, the
// provisioner and the launcher.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ExitNotFound is the exit code reported when the executable does not exist.
const ExitNotFound = 127

// Command describes one process invocation.
type Command struct {
	// Name is the executable.
	Name string

	// Args are passed verbatim; no shell is involved.
	Args []string

	// Dir is the working directory, defaulting to the current one.
	Dir string

	// Env is appended to the inherited environment as KEY=VALUE pairs.
	Env []string

	// Stdin, when set, feeds the process.
	Stdin io.Reader

	// Stdout and Stderr, when set, receive a copy of the output as it is
	// produced. Output is captured in the Result either way.
	Stdout io.Writer
	Stderr io.Writer

	// Sudo runs the command through sudo.
	Sudo bool

	// SudoPassword is fed to sudo -S when set; otherwise NOPASSWD sudo is
	// assumed.
	SudoPassword string
}

// String renders the command line as it would be typed.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+2)
	if c.Sudo {
		parts = append(parts, "sudo")
	}
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'{}") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Result captures the outcome of a completed process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// OK reports whether the process exited zero.
func (r *Result) OK() bool {
	return r != nil && r.ExitCode == 0
}

// StdoutString returns trimmed stdout.
func (r *Result) StdoutString() string {
	return strings.TrimSpace(string(r.Stdout))
}

// StderrString returns trimmed stderr.
func (r *Result) StderrString() string {
	return strings.TrimSpace(string(r.Stderr))
}

// CommandRunner abstracts process execution.
//
// Run returns a non-nil Result whenever the process was attempted. A nonzero
// exit is reported through Result.ExitCode with a nil error; the error is
// reserved for processes that could not be started or were cancelled.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Func adapts a function to CommandRunner.
type Func func(ctx context.Context, cmd Command) (*Result, error)

// Run calls f.
func (f Func) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

// Run executes cmd with os/exec.
func (ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("command is required")
	}

	name, args := c.Name, c.Args
	stdin := c.Stdin
	if c.Sudo {
		sudoArgs := []string{}
		if c.SudoPassword != "" {
			sudoArgs = append(sudoArgs, "-S")
			stdin = io.MultiReader(strings.NewReader(c.SudoPassword+"\n"), orEmpty(stdin))
		}
		sudoArgs = append(sudoArgs, c.Name)
		name, args = "sudo", append(sudoArgs, c.Args...)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, c.Stdout)
	cmd.Stderr = tee(&stderr, c.Stderr)

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	result.ExitCode = 1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		result.ExitCode = ExitNotFound
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("failed to execute %s: %w", c.Name, ctxErr)
	}
	return result, fmt.Errorf("failed to execute %s: %w", c.Name, err)
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

func orEmpty(r io.Reader) io.Reader {
	if r == nil {
		return strings.NewReader("")
	}
	return r
}

// LookPath reports whether an executable is on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
