package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfroyo/junoctl/pkg/engine"
	"github.com/openfroyo/junoctl/pkg/reconcile"
	"github.com/openfroyo/junoctl/pkg/sweep"
)

func newPlanCommand() *cobra.Command {
	var (
		composeBase    string
		composeRuntime string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "List the resources cleanup would target and the commands it would run",
		Long: `Discover the resources owned by the manifests, show where each one was
found (the manifest files or the daemon's merged view), and list the daemon
commands a cleanup would issue. Nothing is changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireEnv()
			if err != nil {
				return err
			}
			base, runtime := e.manifests(composeBase, composeRuntime)
			daemon := e.daemon(true)

			s := sweep.New(daemon, sweep.Options{
				BaseFile:    base,
				RuntimeFile: runtime,
				Projects:    e.cfg.Projects,
				Logger:      e.tel.Logger,
				Metrics:     e.tel.Metrics,
			})
			set, err := s.Discover(cmd.Context())
			if err != nil {
				return err
			}

			reconcile.NewCleaner(daemon, reconcile.Options{
				Projects: e.cfg.Projects,
				Files:    s.ExistingFiles(),
				Logger:   e.tel.Logger,
			}).Cleanup(cmd.Context(), set)

			out := cmd.OutOrStdout()
			printResources(out, set)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "=== Planned Commands ===")
			for _, line := range daemon.Planned() {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&composeBase, "compose-base", "", "base compose manifest")
	cmd.Flags().StringVar(&composeRuntime, "compose-runtime", "", "runtime compose overlay")

	return cmd
}

func printResources(w io.Writer, set *engine.ResourceSet) {
	fmt.Fprintln(w, "=== Resources ===")
	for _, kind := range engine.AllKinds {
		fmt.Fprintf(w, "%s (%d)\n", kind.Plural(), set.Count(kind))
		for _, id := range set.Items(kind) {
			var sources []string
			for _, p := range []engine.Provenance{engine.ProvenanceIndependent, engine.ProvenanceMerged} {
				for _, seen := range set.From(kind, p) {
					if seen == id {
						sources = append(sources, string(p))
						break
					}
				}
			}
			fmt.Fprintf(w, "  %-40s %s\n", id, strings.Join(sources, ","))
		}
	}
}
