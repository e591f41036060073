package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
)

// sizeUnits is the display scale, each step a factor of 1024.
var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// iecUnits maps the daemon's unit spellings to 1024-based units.
var iecUnits = map[string]string{
	"":    "B",
	"B":   "B",
	"K":   "KiB",
	"KB":  "KiB",
	"KIB": "KiB",
	"M":   "MiB",
	"MB":  "MiB",
	"MIB": "MiB",
	"G":   "GiB",
	"GB":  "GiB",
	"GIB": "GiB",
	"T":   "TiB",
	"TB":  "TiB",
	"TIB": "TiB",
}

var sizePattern = regexp.MustCompile(`^([0-9]*\.?[0-9]+)\s*([A-Za-z]*)$`)

// ParseSize converts a daemon-reported size string to bytes. Units are
// case-insensitive and 1024-based. A parenthesised annotation such as
// "(virtual 3.4GB)" is ignored, and empty or "N/A" sizes count as zero.
func ParseSize(s string) (uint64, error) {
	primary, _, _ := strings.Cut(s, "(")
	primary = strings.TrimSpace(primary)
	if primary == "" || strings.EqualFold(primary, "N/A") {
		return 0, nil
	}

	m := sizePattern.FindStringSubmatch(primary)
	if m == nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	unit, ok := iecUnits[strings.ToUpper(m[2])]
	if !ok {
		return 0, fmt.Errorf("invalid size unit %q in %q", m[2], s)
	}

	n, err := humanize.ParseBytes(m[1] + " " + unit)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n, nil
}

// FormatSize renders bytes with two decimals in the largest unit that keeps
// the value below 1024, e.g. 1536 -> "1.50KB".
func FormatSize(bytes uint64) string {
	size := float64(bytes)
	for _, unit := range sizeUnits[:len(sizeUnits)-1] {
		if size < 1024 {
			return fmt.Sprintf("%.2f%s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f%s", size, sizeUnits[len(sizeUnits)-1])
}
