// Package mount implements the MNT procedure of the MOUNT v3 protocol on
// top of a handle manager: the client names an export directory and gets
// back its root file handle.
package mount

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	"github.com/marmos91/nfsfh/internal/logger"
	"github.com/marmos91/nfsfh/internal/protocol/nfs/xdr"
	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/marmos91/nfsfh/pkg/handles"
	"github.com/marmos91/nfsfh/pkg/metrics"
	xdr2 "github.com/rasky/go-xdr/xdr2"
)

// MaxPathLen is MNTPATHLEN.
const MaxPathLen = 1024

// MountRequest represents a MOUNT (MNT) request from an NFS client.
//
//	MNT(dirpath) -> mountres3
type MountRequest struct {
	// DirPath is the absolute server path the client wants to mount.
	DirPath string
}

// MountResponse represents the response to a MOUNT (MNT) request.
type MountResponse struct {
	// Status is MountOK or one of the MountErr* codes.
	Status uint32

	// FileHandle is the handle of DirPath. Only present when Status == MountOK.
	FileHandle []byte

	// AuthFlavors lists accepted authentication flavors. Only present when
	// Status == MountOK.
	AuthFlavors []int32
}

// Handler serves MNT requests.
type Handler struct {
	Handles *handles.Manager

	// Metrics is optional.
	Metrics metrics.NFSMetrics
}

// DecodeMountRequest decodes an XDR dirpath.
func DecodeMountRequest(data []byte) (*MountRequest, error) {
	req := &MountRequest{}
	if _, err := xdr2.Unmarshal(bytes.NewReader(data), req); err != nil {
		return nil, fmt.Errorf("decode mount request: %w", err)
	}
	return req, nil
}

// Mount returns the directory handle for req.DirPath. The path must be an
// existing directory at or below the export root.
func (h *Handler) Mount(ctx context.Context, clientAddr string, req *MountRequest) *MountResponse {
	m := metrics.NFSOrNoop(h.Metrics)
	m.RecordRequestStart("MNT")
	start := time.Now()

	resp := h.mount(ctx, clientAddr, req)

	m.RecordRequestEnd("MNT")
	m.RecordRequest("MNT", time.Since(start), resp.Status)
	return resp
}

func (h *Handler) mount(ctx context.Context, clientAddr string, req *MountRequest) *MountResponse {
	if err := ctx.Err(); err != nil {
		return &MountResponse{Status: MountErrServerFault}
	}

	if len(req.DirPath) > MaxPathLen {
		logger.Warn("MNT failed: path too long (%d bytes) client=%s", len(req.DirPath), clientAddr)
		return &MountResponse{Status: MountErrNameTooLong}
	}
	if !filepath.IsAbs(req.DirPath) {
		logger.Warn("MNT failed: relative path %q client=%s", req.DirPath, clientAddr)
		return &MountResponse{Status: MountErrInval}
	}

	fh, err := h.Handles.Compose(req.DirPath, true)
	if err != nil {
		status := mountStatus(err)
		logger.Warn("MNT failed for %s: %v status=%d client=%s", req.DirPath, err, status, clientAddr)
		return &MountResponse{Status: status}
	}

	logger.Info("MNT %s -> %s client=%s", req.DirPath, fh, clientAddr)
	return &MountResponse{
		Status:      MountOK,
		FileHandle:  fh.Bytes(),
		AuthFlavors: []int32{AuthNull, AuthUnix},
	}
}

// mountStatus maps a compose failure to a mountstat3. A path outside the
// export root is reported as not exported.
func mountStatus(err error) uint32 {
	if filehandle.IsCode(err, filehandle.ErrInvalidPath) {
		return MountErrAccess
	}

	switch status := xdr.StatusFromError(err); status {
	case xdr.NFS3ErrNoEnt, xdr.NFS3ErrAcces, xdr.NFS3ErrNotDir, xdr.NFS3ErrInval,
		xdr.NFS3ErrNameTooLong, xdr.NFS3ErrIO, xdr.NFS3ErrNotSupp:
		return status
	default:
		return MountErrServerFault
	}
}

// Encode serializes the response as a mountres3.
func (resp *MountResponse) Encode() ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.BigEndian, resp.Status); err != nil {
		return nil, fmt.Errorf("write status: %w", err)
	}

	// Only the status is returned for errors
	if resp.Status != MountOK {
		return buf.Bytes(), nil
	}

	if err := xdr.EncodeRawFileHandle(&buf, resp.FileHandle); err != nil {
		return nil, err
	}

	authCount := uint32(len(resp.AuthFlavors))
	if err := binary.Write(&buf, binary.BigEndian, authCount); err != nil {
		return nil, fmt.Errorf("write auth count: %w", err)
	}
	for _, flavor := range resp.AuthFlavors {
		if err := binary.Write(&buf, binary.BigEndian, flavor); err != nil {
			return nil, fmt.Errorf("write auth flavor: %w", err)
		}
	}

	return buf.Bytes(), nil
}
