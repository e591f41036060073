//go:build !unix

package provision

import (
	"fmt"
	"os"
)

func fileOwner(info os.FileInfo) (int, error) {
	return 0, fmt.Errorf("file ownership is not supported on this platform: %s", info.Name())
}
