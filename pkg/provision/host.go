package provision

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/openfroyo/junoctl/pkg/runner"
)

// Host answers the read-only questions provisioning asks about the machine.
type Host interface {
	LookPath(name string) bool
	LookupUID(username string) (int, error)

	// Owner returns the uid owning path. It wraps os.ErrNotExist when path
	// is missing.
	Owner(path string) (int, error)

	ReadFile(path string) ([]byte, error)
	Getenv(key string) string
	Geteuid() int
}

// OSHost is the Host of the running machine.
type OSHost struct{}

var _ Host = OSHost{}

func (OSHost) LookPath(name string) bool { return runner.LookPath(name) }

func (OSHost) LookupUID(username string) (int, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return 0, err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, fmt.Errorf("invalid uid %q for %s: %w", u.Uid, username, err)
	}
	return uid, nil
}

func (OSHost) Owner(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fileOwner(info)
}

func (OSHost) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (OSHost) Getenv(key string) string { return os.Getenv(key) }

func (OSHost) Geteuid() int { return os.Geteuid() }

// TargetUser resolves the account that receives docker group membership:
// the explicit user, then a non-root SUDO_USER, then USER, then the current
// account, then root.
func TargetUser(provided string, h Host) string {
	if provided != "" {
		return provided
	}
	if u := h.Getenv("SUDO_USER"); u != "" && u != "root" {
		return u
	}
	if u := h.Getenv("USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "root"
}
