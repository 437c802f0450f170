// Package commands implements the nfsfh command line.
package commands

import (
	"fmt"

	"github.com/marmos91/nfsfh/cmd/nfsfh/commands/config"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile    string
	exportRoot string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nfsfh",
	Short: "Stateless NFSv3 file handles",
	Long: `nfsfh composes and resolves NFSv3 file handles for a local directory tree.

Handles carry (device, inode, generation) plus one hash byte per path
component, so a server can find any object again without keeping state.

Use "nfsfh [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/nfsfh/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&exportRoot, "root", "", "export root (overrides handles.root)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(walkCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(config.Cmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "nfsfh %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}
