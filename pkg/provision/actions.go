package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// ErrRuntimeDirOwnership is returned when the target user's runtime
// directory belongs to another account. Containers then lose PulseAudio
// access, so setup stops.
var ErrRuntimeDirOwnership = errors.New("runtime directory ownership is incorrect")

// fallbackUID is used when the target user cannot be looked up.
const fallbackUID = 1000

// CheckRuntimeDir verifies /run/user/<uid> belongs to the target user and
// warns when PulseAudio is unreachable or listening somewhere containers do
// not expect. It is skipped for root.
func (s *Setup) CheckRuntimeDir(ctx context.Context) error {
	if s.user == "root" {
		return nil
	}

	uid, err := s.host.LookupUID(s.user)
	if err != nil {
		uid = fallbackUID
	}
	runtimeDir := fmt.Sprintf("/run/user/%d", uid)
	socket := runtimeDir + "/pulse/native"

	owner, err := s.host.Owner(runtimeDir)
	switch {
	case err == nil && owner != uid:
		s.logger.Errorf("Runtime directory %s is owned by uid %d (should be %d); containers will lose PulseAudio access", runtimeDir, owner, uid)
		s.logger.Errorf("To fix this issue, run: sudo chown -R %s:%s %s && sudo systemctl restart user@%d.service", s.user, s.user, runtimeDir, uid)
		s.logger.Error("This usually happens when containers with 'restart: unless-stopped' start before the user session after a reboot.")
		return fmt.Errorf("%w: %s owned by uid %d, expected %d", ErrRuntimeDirOwnership, runtimeDir, owner, uid)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		s.logger.WithError(err).Debugf("cannot inspect %s", runtimeDir)
	}

	res, err := s.unprivileged(ctx, "pactl", "info")
	if !succeeded(res, err) {
		reason := "Unknown error"
		if res != nil && strings.TrimSpace(res.StderrString()) != "" {
			reason = strings.TrimSpace(res.StderrString())
		} else if err != nil {
			reason = err.Error()
		}
		s.logger.Warnf("PulseAudio is not accessible (%s); containers may have audio issues", reason)
		return nil
	}

	server := pulseServer(res.StdoutString())
	if server != "" && !strings.Contains(server, socket) {
		s.logger.Warnf("PulseAudio socket is at %s but containers expect unix:%s; restart the session or reconfigure PulseAudio", server, socket)
	}
	return nil
}

// pulseServer extracts the "Server String" from pactl info output.
func pulseServer(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if rest, ok := strings.CutPrefix(line, "Server String:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// EnsureDockerGroup adds the target user to the docker group when missing.
func (s *Setup) EnsureDockerGroup(ctx context.Context, report *Report) {
	if s.user == "root" {
		s.logger.Info("Target user resolved to root. Docker group membership changes will be skipped.")
		return
	}
	if _, err := s.host.LookupUID(s.user); err != nil {
		s.logger.Infof("User %s does not exist; skipping docker group membership.", s.user)
		return
	}

	res, err := s.unprivileged(ctx, "id", "-nG", s.user)
	if succeeded(res, err) {
		for _, group := range strings.Fields(res.StdoutString()) {
			if group == "docker" {
				s.logger.Infof("User %s is already in the docker group.", s.user)
				return
			}
		}
	}

	if !s.priv.Available() {
		report.manual(fmt.Sprintf("Add user %s to the docker group (usermod -aG docker %s)", s.user, s.user))
		return
	}

	s.logger.Infof("Adding user %s to docker group...", s.user)
	if !succeeded(s.priv.Run(ctx, "usermod", "-aG", "docker", s.user)) {
		s.logger.Errorf("Failed to add user %s to docker group.", s.user)
		return
	}
	report.Changed = true
	s.logger.Infof("User %s added to docker group. Log out and back in for the change to take effect.", s.user)
}

// EnsurePowerMode applies the requested nvpmodel profile when the active
// one differs.
func (s *Setup) EnsurePowerMode(ctx context.Context, report *Report) {
	if !s.host.LookPath("nvpmodel") {
		s.logger.Info("nvpmodel command not found; skipping power mode configuration.")
		return
	}

	var current string
	if res, err := s.unprivileged(ctx, "nvpmodel", "-q"); succeeded(res, err) {
		current = currentPowerMode(res.StdoutString() + res.StderrString())
	}
	if current == s.opts.PowerMode {
		s.logger.Infof("Power mode already set to %s.", s.opts.PowerMode)
		return
	}

	if !s.priv.Available() {
		report.manual(fmt.Sprintf("Set power mode to %s with nvpmodel", s.opts.PowerMode))
		return
	}

	report.PowerModeRequested = true
	if current == "" {
		current = "unknown"
	}
	s.logger.Infof("Changing power mode from %s to %s requires a reboot; the system will restart automatically if needed.", current, s.opts.PowerMode)

	res, err := s.priv.Run(ctx, "nvpmodel", "-m", s.opts.PowerMode, "--force")
	if err != nil || res == nil {
		s.logger.WithError(err).Error("Failed to set power mode.")
		return
	}
	output := strings.TrimSpace(res.StdoutString() + res.StderrString())
	if output != "" {
		s.logger.Info(output)
	}
	if !res.OK() {
		s.logger.Error("Failed to set power mode.")
		return
	}

	report.Changed = true
	if strings.Contains(strings.ToLower(output), "reboot") {
		report.AutoReboot = true
	}
	s.logger.Infof("Power mode set to %s.", s.opts.PowerMode)
}

// currentPowerMode returns the first all-digit line of nvpmodel -q output,
// which follows the "NV Power Mode: NAME" line.
func currentPowerMode(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && strings.IndexFunc(line, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
			return line
		}
	}
	return ""
}
