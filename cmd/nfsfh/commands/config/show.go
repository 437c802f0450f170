package config

import (
	"github.com/marmos91/nfsfh/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective nfsfh configuration as YAML, after environment
overrides and defaults are applied.

Examples:
  nfsfh config show
  NFSFH_CACHE_CAPACITY=8192 nfsfh config show`,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
