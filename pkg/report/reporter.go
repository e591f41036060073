// Package report verifies live daemon state after a sweep by scanning every
// listing for resources that still look like they belong to the deployment.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/openfroyo/junoctl/pkg/engine"
	"github.com/openfroyo/junoctl/pkg/telemetry"
)

// Reporter scans live daemon listings, independent of any ResourceSet, and
// keeps the entries whose name or labels match one of the patterns.
type Reporter struct {
	lister   engine.Lister
	patterns []string
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
}

var _ engine.Verifier = (*Reporter)(nil)

// NewReporter creates a reporter. Patterns are matched case-insensitively
// as substrings.
func NewReporter(lister engine.Lister, patterns []string, logger *telemetry.Logger, metrics *telemetry.Metrics) *Reporter {
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			lowered = append(lowered, strings.ToLower(p))
		}
	}
	return &Reporter{
		lister:   lister,
		patterns: lowered,
		logger:   logger.NewComponentLogger("reporter"),
		metrics:  metrics,
	}
}

// Report lists every kind and collects matching leftovers. A listing that
// fails is logged and recorded as unavailable; the other kinds are still
// reported.
func (r *Reporter) Report(ctx context.Context) *engine.Summary {
	summary := engine.NewSummary()

	for _, kind := range engine.AllKinds {
		live, err := r.lister.List(ctx, kind)
		if err != nil {
			r.logger.WithError(err).Warnf("Could not list %s", kind.Plural())
			summary.Unavailable[kind] = err.Error()
			r.metrics.RecordError(string(engine.ClassOf(err)))
			continue
		}

		var total uint64
		for _, res := range live {
			if !r.Matches(res) {
				continue
			}
			summary.Leftovers[kind] = append(summary.Leftovers[kind], engine.LeftoverRecord{
				Kind:   kind,
				ID:     res.Name,
				Size:   res.Size,
				Status: res.Status,
			})

			n, err := ParseSize(res.Size)
			if err != nil {
				r.logger.Debugf("ignoring size of %s: %v", res.Name, err)
				continue
			}
			total += n
		}
		summary.Bytes[kind] = total
		r.metrics.SetLeftovers(string(kind), summary.Count(kind), total)
	}

	return summary
}

// Matches reports whether res belongs to the deployment by name or label.
func (r *Reporter) Matches(res engine.LiveResource) bool {
	name := strings.ToLower(res.Name)
	labels := strings.ToLower(res.Labels)
	for _, p := range r.patterns {
		if strings.Contains(name, p) || strings.Contains(labels, p) {
			return true
		}
	}
	return false
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// Render writes a human-readable summary to w: per-kind totals followed by
// a table of every leftover.
func Render(w io.Writer, s *engine.Summary) error {
	var b strings.Builder

	b.WriteString("=== Live State ===\n")
	for _, kind := range engine.AllKinds {
		if reason, ok := s.Unavailable[kind]; ok {
			fmt.Fprintf(&b, "%-11s unavailable (%s)\n", kind.Plural()+":", reason)
			continue
		}
		fmt.Fprintf(&b, "%-11s %d (%s)\n", kind.Plural()+":", s.Count(kind), FormatSize(s.Bytes[kind]))
	}

	if s.Total() > 0 {
		rows := make([][]string, 0, s.Total())
		for _, kind := range engine.AllKinds {
			for _, rec := range s.Leftovers[kind] {
				rows = append(rows, []string{string(kind), rec.ID, rec.Size, rec.Status})
			}
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("KIND", "NAME", "SIZE", "STATUS").
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		b.WriteString(t.String())
		b.WriteString("\n")
	}

	switch {
	case s.Clean():
		b.WriteString(okStyle.Render("No leftover resources found."))
	case s.Total() > 0:
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d leftover resources remain.", s.Total())))
	default:
		b.WriteString(warnStyle.Render("Live state could not be fully verified."))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
