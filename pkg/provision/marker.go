package provision

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Version identifies the provisioning revision. Bump it whenever the
// actions change so devices re-run setup on the next launch.
const Version = "2025.10.12"

// MarkerFile is the default name of the state marker.
const MarkerFile = ".setup_complete.toml"

// Marker records the last completed setup.
type Marker struct {
	SetupOn   string `toml:"setup_on"`
	Version   string `toml:"version"`
	PowerMode string `toml:"power_mode"`
}

// ReadMarker decodes the state marker at path.
func ReadMarker(path string) (*Marker, error) {
	var m Marker
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("failed to read setup marker %s: %w", path, err)
	}
	return &m, nil
}

// WriteMarker writes m to path, replacing any previous marker.
func WriteMarker(path string, m Marker) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create setup marker: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("failed to encode setup marker: %w", err)
	}
	return f.Close()
}
