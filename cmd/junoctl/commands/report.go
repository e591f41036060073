package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/openfroyo/junoctl/pkg/report"
)

func newReportCommand() *cobra.Command {
	var (
		patterns   []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show live resources that look like they belong to Juno",
		Long: `List every container, image, volume and network whose name or labels
contain one of the patterns (case-insensitive), with aggregated sizes. Nothing
is changed.`,
		Example: `  junoctl report
  junoctl report --pattern juno --pattern whisper --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireEnv()
			if err != nil {
				return err
			}
			if len(patterns) == 0 {
				patterns = e.cfg.Patterns
			}

			summary := report.NewReporter(e.daemon(false), patterns, e.tel.Logger, e.tel.Metrics).Report(cmd.Context())
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return report.Render(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "name or label substring to match (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}
