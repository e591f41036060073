package provision

import (
	"context"
	"errors"

	"github.com/openfroyo/junoctl/pkg/runner"
)

// ErrNoPrivilege is returned when a command needs root and neither root nor
// sudo is available.
var ErrNoPrivilege = errors.New("root privileges are required")

// Mode is how privileged commands are executed.
type Mode int

const (
	// ModeAuto detects the mode from the effective uid and sudo on PATH.
	ModeAuto Mode = iota

	// ModeNone means privileged commands cannot run.
	ModeNone

	// ModeSudo prefixes privileged commands with sudo.
	ModeSudo

	// ModeRoot runs privileged commands directly.
	ModeRoot
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeSudo:
		return "sudo"
	case ModeRoot:
		return "root"
	default:
		return "auto"
	}
}

// DetectMode picks root when euid is 0, sudo when it is on PATH and none
// otherwise.
func DetectMode(euid int, lookPath func(string) bool) Mode {
	switch {
	case euid == 0:
		return ModeRoot
	case lookPath("sudo"):
		return ModeSudo
	default:
		return ModeNone
	}
}

// Privileged runs commands with the best available escalation.
type Privileged struct {
	mode   Mode
	runner runner.CommandRunner
}

// NewPrivileged creates a privileged runner for a resolved mode.
func NewPrivileged(mode Mode, r runner.CommandRunner) *Privileged {
	return &Privileged{mode: mode, runner: r}
}

// Mode returns the escalation mode.
func (p *Privileged) Mode() Mode {
	return p.mode
}

// Available reports whether privileged commands can run at all.
func (p *Privileged) Available() bool {
	return p.mode == ModeRoot || p.mode == ModeSudo
}

// Run executes name with args, through sudo when needed. It returns
// ErrNoPrivilege without running anything in ModeNone.
func (p *Privileged) Run(ctx context.Context, name string, args ...string) (*runner.Result, error) {
	if !p.Available() {
		return nil, ErrNoPrivilege
	}
	return p.runner.Run(ctx, runner.Command{
		Name: name,
		Args: args,
		Sudo: p.mode == ModeSudo,
	})
}
