package launch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-version"

	"github.com/openfroyo/junoctl/pkg/provision"
)

// SetupNeeded decides whether provisioning must run before launch. It
// returns a reason when the marker is missing, unreadable or records a
// version older than current.
func SetupNeeded(markerPath, current string) (bool, string) {
	if _, err := os.Stat(markerPath); errors.Is(err, os.ErrNotExist) {
		return true, "Jetson setup state not found"
	}

	marker, err := provision.ReadMarker(markerPath)
	if err != nil || marker.Version == "" {
		return true, "Jetson setup state is unreadable"
	}
	recorded, err := version.NewVersion(marker.Version)
	if err != nil {
		return true, "Jetson setup state is unreadable"
	}

	want, err := version.NewVersion(current)
	if err != nil {
		return false, ""
	}
	if recorded.LessThan(want) {
		return true, "Recorded Jetson setup version is outdated"
	}
	return false, ""
}

func (l *Launcher) ensureSetup(ctx context.Context) error {
	if l.opts.Setup == nil {
		return nil
	}
	if _, err := version.NewVersion(provision.Version); err != nil {
		l.logger.Warn("Unrecognized setup version format; skipping automatic setup.")
		return nil
	}

	needed, reason := SetupNeeded(l.opts.StateFile, provision.Version)
	if !needed {
		return nil
	}

	l.logger.Infof("%s; running setup (version %s)...", reason, provision.Version)
	if err := l.opts.Setup(ctx); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	return nil
}
