package commands

import (
	"github.com/spf13/cobra"

	"github.com/openfroyo/junoctl/pkg/report"
	"github.com/openfroyo/junoctl/pkg/sweep"
)

func newCleanupCommand() *cobra.Command {
	var (
		dryRun         bool
		composeBase    string
		composeRuntime string
		prune          bool
		yes            bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove every resource the Juno manifests own",
		Long: `Remove the containers, images, volumes and networks declared by the base
and runtime compose manifests, including the names the daemon derives under
each known project, then report what is left.

Removal is speculative: resources that are already gone or still in use are
skipped. The command exits 1 only when neither manifest can be parsed.`,
		Example: `  # Show what would be removed
  junoctl cleanup --dry-run

  # Clean up and prune dangling images without prompting
  junoctl cleanup --prune --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireEnv()
			if err != nil {
				return err
			}
			base, runtime := e.manifests(composeBase, composeRuntime)

			result, err := sweep.New(e.daemon(dryRun), sweep.Options{
				BaseFile:    base,
				RuntimeFile: runtime,
				Projects:    e.cfg.Projects,
				Patterns:    e.cfg.Patterns,
				Prune:       prune,
				AssumeYes:   yes,
				In:          cmd.InOrStdin(),
				Out:         cmd.OutOrStdout(),
				Logger:      e.tel.Logger,
				Metrics:     e.tel.Metrics,
			}).Run(cmd.Context())
			if err != nil {
				return err
			}

			if result.Summary != nil {
				return report.Render(cmd.OutOrStdout(), result.Summary)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the commands that would run without changing anything")
	cmd.Flags().StringVar(&composeBase, "compose-base", "", "base compose manifest")
	cmd.Flags().StringVar(&composeRuntime, "compose-runtime", "", "runtime compose overlay")
	cmd.Flags().BoolVar(&prune, "prune", false, "offer to prune dangling images after cleanup")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "answer yes to the prune prompt")

	return cmd
}
