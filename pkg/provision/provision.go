// Package provision prepares an edge device for the Juno stack. Every
// action checks the current host state first and only applies a change when
// the host differs, so setup is safe to re-run.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/openfroyo/junoctl/pkg/runner"
	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// DefaultUnitPath is where the clocks unit is installed.
const DefaultUnitPath = "/etc/systemd/system/jetson_clocks.service"

// Options configures a setup run.
type Options struct {
	// User receives docker group membership. Empty means the detected
	// caller.
	User string

	// PowerMode is the nvpmodel index to apply.
	PowerMode string

	// StateFile is the marker path.
	StateFile string

	// UnitPath overrides DefaultUnitPath.
	UnitPath string

	// Mode overrides privilege detection.
	Mode Mode

	Runner runner.CommandRunner
	Host   Host
	Logger *telemetry.Logger

	// Now stamps the marker.
	Now func() time.Time
}

// Report summarises a setup run.
type Report struct {
	TargetUser string
	PowerMode  string
	Privilege  Mode

	// Changed is set when any action modified the host.
	Changed bool

	// Manual lists actions that need root and were not applied.
	Manual []string

	PowerModeRequested bool
	AutoReboot         bool
	MarkerWritten      bool
}

func (r *Report) manual(action string) {
	r.Manual = append(r.Manual, action)
}

// Setup runs the provisioning actions against one host.
type Setup struct {
	opts   Options
	runner runner.CommandRunner
	priv   *Privileged
	host   Host
	logger *telemetry.Logger
	user   string
}

// New creates a setup run, resolving the target user and privilege mode.
func New(opts Options) *Setup {
	if opts.PowerMode == "" {
		opts.PowerMode = "0"
	}
	if opts.StateFile == "" {
		opts.StateFile = MarkerFile
	}
	if opts.UnitPath == "" {
		opts.UnitPath = DefaultUnitPath
	}
	if opts.Runner == nil {
		opts.Runner = runner.ExecRunner{}
	}
	if opts.Host == nil {
		opts.Host = OSHost{}
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	mode := opts.Mode
	if mode == ModeAuto {
		mode = DetectMode(opts.Host.Geteuid(), opts.Host.LookPath)
	}

	return &Setup{
		opts:   opts,
		runner: opts.Runner,
		priv:   NewPrivileged(mode, opts.Runner),
		host:   opts.Host,
		logger: opts.Logger.NewComponentLogger("provision"),
		user:   TargetUser(opts.User, opts.Host),
	}
}

// TargetUser returns the resolved target user.
func (s *Setup) TargetUser() string {
	return s.user
}

// Run executes every action in order and writes the state marker when
// nothing is left for the operator to do by hand. Only a broken runtime
// directory or a marker write failure is an error.
func (s *Setup) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		TargetUser: s.user,
		PowerMode:  s.opts.PowerMode,
		Privilege:  s.priv.Mode(),
	}

	s.logger.Info("=== Jetson Setup ===")
	s.logger.Infof("Target user: %s", s.user)
	s.logger.Infof("Desired power mode: %s", s.opts.PowerMode)

	if err := s.CheckRuntimeDir(ctx); err != nil {
		return report, err
	}
	s.EnsureDockerGroup(ctx, report)
	s.EnsureClocksService(ctx, report)
	s.EnsurePowerMode(ctx, report)

	if len(report.Manual) > 0 {
		s.logger.Warn("The following actions require root privileges to complete:")
		for _, action := range report.Manual {
			s.logger.Warnf("  - %s", action)
		}
		s.logger.Warn("Re-run setup with sudo or execute the commands above manually.")
	}

	if report.PowerModeRequested {
		s.logger.Info("Power mode change requested; the system will reboot automatically if required to finalize the setting.")
		if report.AutoReboot {
			s.logger.Warn("nvpmodel reported that the system is rebooting immediately. Allow the device to restart before continuing.")
		}
	}

	if !report.Changed {
		s.logger.Info("No changes were necessary.")
	}

	if len(report.Manual) > 0 {
		s.logger.Infof("Skipping creation of %s because some actions require root privileges.", s.opts.StateFile)
		return report, nil
	}

	_, statErr := os.Stat(s.opts.StateFile)
	if report.Changed || errors.Is(statErr, os.ErrNotExist) {
		err := WriteMarker(s.opts.StateFile, Marker{
			SetupOn:   s.opts.Now().Format("2006-01-02T15:04:05"),
			Version:   Version,
			PowerMode: s.opts.PowerMode,
		})
		if err != nil {
			return report, fmt.Errorf("failed to record setup completion: %w", err)
		}
		report.MarkerWritten = true
		s.logger.Infof("Recorded setup completion in %s.", s.opts.StateFile)
	}
	return report, nil
}

// unprivileged runs a read-only probe as the caller.
func (s *Setup) unprivileged(ctx context.Context, name string, args ...string) (*runner.Result, error) {
	return s.runner.Run(ctx, runner.Command{Name: name, Args: args})
}

// succeeded reports whether a command ran and exited zero.
func succeeded(res *runner.Result, err error) bool {
	return err == nil && res != nil && res.OK()
}
