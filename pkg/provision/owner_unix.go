//go:build unix

package provision

import (
	"fmt"
	"os"
	"syscall"
)

func fileOwner(info os.FileInfo) (int, error) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, fmt.Errorf("no ownership information for %s", info.Name())
	}
	return int(st.Uid), nil
}
