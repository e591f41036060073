package commands

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openfroyo/junoctl/pkg/launch"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the Juno runtime services",
		Long: `Run setup first when the recorded provisioning is missing or older than
this binary, render the base and runtime manifests into one file, pull and
start the runtime services in the foreground. The exit status is the status
of docker compose up.

The project name is COMPOSE_PROJECT_NAME, or the deployment directory name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireEnv()
			if err != nil {
				return err
			}

			stateFile := e.cfg.Setup.StateFile
			if !filepath.IsAbs(stateFile) {
				stateFile = filepath.Join(e.cfg.Launch.Dir, stateFile)
			}

			code, err := launch.New(e.daemon(false), launch.Options{
				Dir:         e.cfg.Launch.Dir,
				BaseFile:    e.cfg.Compose.Base,
				RuntimeFile: e.cfg.Compose.Runtime,
				StateFile:   stateFile,
				Hook:        e.cfg.Launch.Hook,
				Services:    e.cfg.Launch.Services,
				Setup: func(ctx context.Context) error {
					_, err := e.provisioner(stateFile).Run(ctx)
					return err
				},
				Logger: e.tel.Logger,
			}).Run(cmd.Context())
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	return cmd
}
