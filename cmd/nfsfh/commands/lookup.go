package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/marmos91/nfsfh/internal/protocol/nfs"
	"github.com/marmos91/nfsfh/internal/protocol/nfs/xdr"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <hex-dir-handle> <name>",
	Short: "Run an NFSv3 LOOKUP against a directory handle",
	Long: `Encode a LOOKUP request for name in the directory named by the handle,
serve it, and print the child's handle as hex.

Examples:
  nfsfh lookup $(nfsfh compose --dir /export/docs | head -1) report.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir, err := hex.DecodeString(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("invalid hex handle: %w", err)
	}

	data, err := (&xdr.DirOpArgs{Dir: dir, Name: args[1]}).Encode()
	if err != nil {
		return err
	}
	req, err := nfs.DecodeLookupRequest(data)
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

	handler := &nfs.Handler{Handles: mgr, Metrics: metricsResult.NFSMetrics}
	resp := handler.Lookup(ctx, "local", req)
	if resp.Status != xdr.NFS3OK {
		return fmt.Errorf("lookup %s failed (nfs status %d)", args[1], resp.Status)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(resp.FileHandle))
	return nil
}
