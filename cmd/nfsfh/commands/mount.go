package commands

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/marmos91/nfsfh/internal/protocol/mount"
	"github.com/spf13/cobra"
)

var mountCmd = &cobra.Command{
	Use:   "mount <dirpath>",
	Short: "Run a MOUNT MNT request and print the reply",
	Long: `Serve an MNT request for a directory under the export root and print the
XDR mountres3 reply as hex.

Examples:
  nfsfh mount /export/docs`,
	Args: cobra.ExactArgs(1),
	RunE: runMount,
}

func runMount(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsResult := startMetrics(ctx, cfg)
	mgr, err := openManager(ctx, cfg, metricsResult.HandleMetrics)
	if err != nil {
		return err
	}
	defer closeManager(ctx, mgr)

	handler := &mount.Handler{Handles: mgr, Metrics: metricsResult.NFSMetrics}
	resp := handler.Mount(ctx, "local", &mount.MountRequest{DirPath: args[0]})
	if resp.Status != mount.MountOK {
		return fmt.Errorf("mount %s failed (mount status %d)", args[0], resp.Status)
	}

	data, err := resp.Encode()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
	return nil
}
