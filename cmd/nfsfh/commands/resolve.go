package commands

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/marmos91/nfsfh/internal/protocol/nfs/xdr"
	"github.com/spf13/cobra"
)

var resolveXDR bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <hex-handle>",
	Short: "Print the path a file handle refers to",
	Long: `Resolve a hex-encoded file handle back to a path.

The handle is searched for under the export root: only directories whose
inode hashes match the recorded component hashes are entered.

Examples:
  nfsfh resolve 01000008030000000c000000000c

  # Input is an XDR nfs_fh3 (length-prefixed, padded)
  nfsfh resolve --xdr 0000000e01000008030000000c000000000c0000`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveXDR, "xdr", false, "Input is an XDR nfs_fh3 encoding")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw, err := hex.DecodeString(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("invalid hex handle: %w", err)
	}
	if resolveXDR {
		raw, err = xdr.DecodeFileHandle(bytes.NewReader(raw))
		if err != nil {
			return err
		}
	}

	ctx := context.Background()
	mgr, err := openManager(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer closeManager(ctx, mgr)

	path, err := mgr.Decompose(raw)
	if err != nil {
		return withStatus(err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
