// Package runnertest provides a scripted CommandRunner for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/openfroyo/junoctl/pkg/runner"
)

// Response is the scripted outcome of a matching call.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

type rule struct {
	prefix string
	resp   Response
}

// Fake records every command and answers from scripted rules. The most
// recently added rule whose prefix matches the rendered argv wins; calls
// with no matching rule succeed with empty output.
type Fake struct {
	mu    sync.Mutex
	rules []rule
	calls []runner.Command
}

// New creates an empty fake runner.
func New() *Fake {
	return &Fake{}
}

// On scripts the response for commands whose argv, joined by spaces,
// starts with prefix.
func (f *Fake) On(prefix string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{prefix: prefix, resp: resp})
	return f
}

// Run implements runner.CommandRunner.
func (f *Fake) Run(_ context.Context, cmd runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)

	line := Argv(cmd)
	for i := len(f.rules) - 1; i >= 0; i-- {
		r := f.rules[i]
		if strings.HasPrefix(line, r.prefix) {
			if cmd.Stdout != nil && r.resp.Stdout != "" {
				_, _ = cmd.Stdout.Write([]byte(r.resp.Stdout))
			}
			return &runner.Result{
				Stdout:   []byte(r.resp.Stdout),
				Stderr:   []byte(r.resp.Stderr),
				ExitCode: r.resp.ExitCode,
			}, r.resp.Err
		}
	}
	return &runner.Result{}, nil
}

// Calls returns the argv of every recorded command.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, Argv(c))
	}
	return out
}

// Commands returns the recorded commands.
func (f *Fake) Commands() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// CallsWithPrefix returns recorded argv lines starting with prefix.
func (f *Fake) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps rules.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Argv renders cmd as space-joined argv without quoting, prefixed with
// "sudo" when elevated.
func Argv(cmd runner.Command) string {
	parts := append([]string{cmd.Name}, cmd.Args...)
	if cmd.Sudo {
		parts = append([]string{"sudo"}, parts...)
	}
	return strings.Join(parts, " ")
}
