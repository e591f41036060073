package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfroyo/junoctl/pkg/config"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate the configuration file",
		Long: `Compile the CUE configuration against the built-in schema, apply defaults
and check every value. Errors are reported with file positions.`,
		Example: `  # Validate ./juno.cue
  junoctl validate

  # Validate a specific file
  junoctl validate /etc/juno/juno.cue`,
		Args: cobra.MaximumNArgs(1),
		// Validation must work on a configuration that cannot start the
		// other commands.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				path = config.DefaultFile
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("config file: %w", err)
			}

			cfg, err := config.NewLoader().Load(path)
			if err != nil {
				var loadErr *config.LoadError
				if errors.As(err, &loadErr) {
					for _, v := range loadErr.Errors {
						fmt.Fprintln(cmd.ErrOrStderr(), v.String())
					}
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: OK\n", path)
			fmt.Fprintf(out, "  projects: %v\n", cfg.Projects)
			fmt.Fprintf(out, "  patterns: %v\n", cfg.Patterns)
			fmt.Fprintf(out, "  manifests: %s, %s\n", cfg.Compose.Base, cfg.Compose.Runtime)
			return nil
		},
	}

	return cmd
}
