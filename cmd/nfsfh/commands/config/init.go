package config

import (
	"fmt"

	"github.com/marmos91/nfsfh/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample nfsfh configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/nfsfh/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  nfsfh config init

  # Initialize with custom path
  nfsfh config init --config /etc/nfsfh/config.yaml

  # Force overwrite existing config
  nfsfh config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", configPath)
	return nil
}
