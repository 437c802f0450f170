package commands

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/marmos91/nfsfh/internal/protocol/nfs/xdr"
	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/spf13/cobra"
)

var (
	composeDir bool
	composeXDR bool
)

var composeCmd = &cobra.Command{
	Use:   "compose <path>",
	Short: "Print the file handle of a path",
	Long: `Compose the NFSv3 file handle of a path under the export root and print
it as hex.

Examples:
  # Handle of a file
  nfsfh compose /export/docs/report.txt

  # Require a directory, as MOUNT does
  nfsfh compose --dir /export/docs

  # Print the XDR nfs_fh3 encoding instead of the raw handle
  nfsfh compose --xdr /export/docs`,
	Args: cobra.ExactArgs(1),
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().BoolVar(&composeDir, "dir", false, "Fail unless the path is a directory")
	composeCmd.Flags().BoolVar(&composeXDR, "xdr", false, "Print the XDR nfs_fh3 encoding")
}

func runCompose(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	mgr, err := openManager(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer closeManager(ctx, mgr)

	h, err := mgr.Compose(path, composeDir)
	if err != nil {
		return withStatus(err)
	}

	out := cmd.OutOrStdout()
	if composeXDR {
		var buf bytes.Buffer
		if err := xdr.EncodeFileHandle(&buf, h); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, hex.EncodeToString(buf.Bytes()))
		return nil
	}

	_, _ = fmt.Fprintln(out, hex.EncodeToString(h.Bytes()))
	_, _ = fmt.Fprintln(out, describe(h))
	return nil
}

// describe renders the handle fields, including the component hashes.
func describe(h filehandle.FileHandle) string {
	return fmt.Sprintf("%s hashes=%x", h, h.ComponentHashes())
}

// withStatus annotates err with the NFSv3 status a server would reply with.
func withStatus(err error) error {
	return fmt.Errorf("%w (nfs status %d)", err, xdr.StatusFromError(err))
}
