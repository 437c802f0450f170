package config

import (
	"fmt"

	"github.com/marmos91/nfsfh/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Load the configuration (file, environment and defaults) and check it.

Examples:
  nfsfh config validate
  nfsfh config validate --config /etc/nfsfh/config.yaml`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	if _, err := config.Load(configPath); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%s)\n", configSource(configPath))
	return nil
}

// configSource returns a description of where the config was loaded from.
func configSource(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if config.ConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
