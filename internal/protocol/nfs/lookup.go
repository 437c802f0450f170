package nfs

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/marmos91/nfsfh/internal/logger"
	"github.com/marmos91/nfsfh/internal/protocol/nfs/xdr"
	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/marmos91/nfsfh/pkg/handles"
	"github.com/marmos91/nfsfh/pkg/metrics"
)

// ProcLookup is the NFSv3 LOOKUP procedure number.
const ProcLookup = 3

// Handler serves handle-producing NFSv3 procedures.
type Handler struct {
	Handles *handles.Manager

	// Metrics is optional.
	Metrics metrics.NFSMetrics
}

// LookupRequest represents a LOOKUP request (diropargs3).
type LookupRequest struct {
	// DirHandle is the raw handle of the directory to search.
	DirHandle []byte

	// Filename is the entry name, without any slash.
	Filename string
}

// LookupResponse represents the reply to a LOOKUP request.
//
// Attributes are always encoded as absent (post_op_attr FALSE); this
// package only deals with handles.
type LookupResponse struct {
	Status uint32

	// FileHandle is the child's handle. Only present when Status == NFS3OK.
	FileHandle []byte
}

// DecodeLookupRequest decodes the XDR arguments of LOOKUP.
func DecodeLookupRequest(data []byte) (*LookupRequest, error) {
	args, err := xdr.DecodeDirOpArgs(data)
	if err != nil {
		return nil, fmt.Errorf("decode lookup request: %w", err)
	}
	return &LookupRequest{DirHandle: args.Dir, Filename: args.Name}, nil
}

// Lookup resolves the directory handle, finds the named entry in it and
// returns the entry's handle.
func (h *Handler) Lookup(ctx context.Context, clientAddr string, req *LookupRequest) *LookupResponse {
	m := metrics.NFSOrNoop(h.Metrics)
	m.RecordRequestStart("LOOKUP")
	start := time.Now()

	resp := h.lookup(ctx, clientAddr, req)

	m.RecordRequestEnd("LOOKUP")
	m.RecordRequest("LOOKUP", time.Since(start), resp.Status)
	return resp
}

func (h *Handler) lookup(ctx context.Context, clientAddr string, req *LookupRequest) *LookupResponse {
	if err := ctx.Err(); err != nil {
		return &LookupResponse{Status: xdr.NFS3ErrIO}
	}

	dirPath, err := h.Handles.Decompose(req.DirHandle)
	if err != nil {
		return &LookupResponse{Status: xdr.MapErrorToStatus(err, clientAddr, "LOOKUP")}
	}

	if st, ok := h.Handles.CachedStat(); ok && !st.IsDir() {
		logger.Warn("LOOKUP failed: %s is not a directory client=%s", dirPath, clientAddr)
		return &LookupResponse{Status: xdr.NFS3ErrNotDir}
	}

	// Decompose accepted the encoding, so this cannot fail.
	dir, err := filehandle.Decode(req.DirHandle)
	if err != nil {
		return &LookupResponse{Status: xdr.NFS3ErrBadHandle}
	}

	child, path, err := h.Handles.Lookup(dir, dirPath, req.Filename)
	if err != nil {
		return &LookupResponse{Status: xdr.MapErrorToStatus(err, clientAddr, "LOOKUP")}
	}

	logger.Debug("LOOKUP %s -> %s client=%s", path, child, clientAddr)
	return &LookupResponse{Status: xdr.NFS3OK, FileHandle: child.Bytes()}
}

// Encode serializes the response as a LOOKUP3res.
func (resp *LookupResponse) Encode() ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.BigEndian, resp.Status); err != nil {
		return nil, fmt.Errorf("write status: %w", err)
	}

	if resp.Status == xdr.NFS3OK {
		if err := xdr.EncodeRawFileHandle(&buf, resp.FileHandle); err != nil {
			return nil, err
		}
		// obj_attributes
		if err := writeNoAttributes(&buf); err != nil {
			return nil, err
		}
	}

	// dir_attributes
	if err := writeNoAttributes(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeNoAttributes writes a post_op_attr with attributes_follow = FALSE.
func writeNoAttributes(buf *bytes.Buffer) error {
	if err := binary.Write(buf, binary.BigEndian, uint32(0)); err != nil {
		return fmt.Errorf("write attributes_follow: %w", err)
	}
	return nil
}
