package commands

import (
	"github.com/spf13/cobra"

	"github.com/openfroyo/junoctl/pkg/provision"
)

func newSetupCommand() *cobra.Command {
	var (
		powerMode string
		user      string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision the Jetson host for the Juno stack",
		Long: `Configure the host idempotently: verify the user runtime directory and
PulseAudio, add the user to the docker group, install and enable the
jetson_clocks service and apply the nvpmodel power mode.

Actions that need root are listed for manual follow-up when neither root nor
sudo is available. A state marker records the completed setup version.`,
		Example: `  sudo junoctl setup
  junoctl setup --power-mode 2 --user juno`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("power-mode") {
				e.cfg.Setup.PowerMode = powerMode
			}
			if cmd.Flags().Changed("user") {
				e.cfg.Setup.User = user
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}

			_, err = e.provisioner(e.cfg.Setup.StateFile).Run(cmd.Context())
			return err
		},
	}

	cmd.Flags().StringVar(&powerMode, "power-mode", "", "nvpmodel power mode index (default from config, 0)")
	cmd.Flags().StringVar(&user, "user", "", "user to add to the docker group (default: detected caller)")

	return cmd
}

func (e *env) provisioner(stateFile string) *provision.Setup {
	return provision.New(provision.Options{
		User:      e.cfg.Setup.User,
		PowerMode: e.cfg.Setup.PowerMode,
		StateFile: stateFile,
		Logger:    e.tel.Logger,
	})
}
