package provision

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// clocksUnit is the desired jetson_clocks unit file.
const clocksUnit = `[Unit]
Description=Jetson performance clocks
After=nvpmodel.service

[Service]
Type=oneshot
ExecStart=/usr/bin/jetson_clocks
RemainAfterExit=yes

[Install]
WantedBy=multi-user.target
`

const clocksService = "jetson_clocks"

// EnsureClocksService installs, enables and starts the jetson_clocks unit.
// The unit file is rewritten only when its content differs.
func (s *Setup) EnsureClocksService(ctx context.Context, report *Report) {
	if !s.host.LookPath("jetson_clocks") {
		s.logger.Info("jetson_clocks command not found; skipping systemd service configuration.")
		return
	}
	if !s.priv.Available() {
		report.manual("Create and enable jetson_clocks systemd service")
		return
	}

	if strings.TrimSpace(s.readUnit(ctx)) != strings.TrimSpace(clocksUnit) {
		s.logger.Info("Configuring jetson_clocks systemd service...")
		if err := s.installUnit(ctx, s.opts.UnitPath, clocksUnit); err != nil {
			s.logger.WithError(err).Errorf("Failed to write %s", s.opts.UnitPath)
			return
		}
		report.Changed = true

		if succeeded(s.priv.Run(ctx, "systemctl", "daemon-reload")) {
			s.logger.Info("Reloaded systemd units.")
		} else {
			s.logger.Error("Failed to reload systemd daemon.")
		}
	}

	state := s.unitState(ctx, clocksService)

	if state.enabled {
		s.logger.Info("jetson_clocks service already enabled.")
	} else {
		s.logger.Info("Enabling jetson_clocks service...")
		if succeeded(s.priv.Run(ctx, "systemctl", "enable", clocksService)) {
			report.Changed = true
			s.logger.Info("jetson_clocks service enabled.")
		} else {
			s.logger.Error("Failed to enable jetson_clocks service.")
		}
	}

	if state.active {
		s.logger.Info("jetson_clocks service already active.")
	} else if succeeded(s.priv.Run(ctx, "systemctl", "start", clocksService)) {
		s.logger.Info("jetson_clocks service started.")
	}
}

type unitState struct {
	active  bool
	enabled bool
}

// unitState probes a unit without privileges.
func (s *Setup) unitState(ctx context.Context, name string) unitState {
	return unitState{
		enabled: succeeded(s.unprivileged(ctx, "systemctl", "is-enabled", name)),
		active:  succeeded(s.unprivileged(ctx, "systemctl", "is-active", name)),
	}
}

// readUnit returns the installed unit, reading it directly when possible
// and through the privileged runner otherwise. Missing units read as empty.
func (s *Setup) readUnit(ctx context.Context) string {
	if data, err := s.host.ReadFile(s.opts.UnitPath); err == nil {
		return string(data)
	}
	res, err := s.priv.Run(ctx, "cat", s.opts.UnitPath)
	if !succeeded(res, err) {
		return ""
	}
	return res.StdoutString()
}

// installUnit stages content in a temporary file and installs it at path
// with mode 0644.
func (s *Setup) installUnit(ctx context.Context, path, content string) error {
	tmp, err := os.CreateTemp("", "junoctl-unit-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary unit: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary unit: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write temporary unit: %w", err)
	}

	res, err := s.priv.Run(ctx, "install", "-m", "0644", tmp.Name(), path)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("install exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.StderrString()))
	}
	return nil
}
