// Package xdr carries file handles across the NFSv3 wire (RFC 1813).
//
// nfs_fh3 is a variable-length opaque of at most NFS3_FHSIZE bytes;
// post_op_fh3 is a discriminated union on a boolean handle_follows.
package xdr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/marmos91/nfsfh/pkg/handles"
	xdr "github.com/rasky/go-xdr/xdr2"
)

// FHSize is NFS3_FHSIZE.
const FHSize = filehandle.MaxHandleSize

// nfsFH3 mirrors the XDR definition of nfs_fh3.
type nfsFH3 struct {
	Data []byte
}

// DirOpArgs mirrors diropargs3, the argument of LOOKUP, CREATE, MKDIR and
// friends.
type DirOpArgs struct {
	Dir  []byte
	Name string
}

// EncodeFileHandle writes h as an nfs_fh3.
func EncodeFileHandle(w io.Writer, h filehandle.FileHandle) error {
	return EncodeRawFileHandle(w, h.Bytes())
}

// EncodeRawFileHandle writes raw as an nfs_fh3. Handles longer than FHSize
// are refused.
func EncodeRawFileHandle(w io.Writer, raw []byte) error {
	if len(raw) > FHSize {
		return fmt.Errorf("file handle length %d exceeds maximum %d", len(raw), FHSize)
	}
	if _, err := xdr.Marshal(w, &nfsFH3{Data: raw}); err != nil {
		return fmt.Errorf("encode file handle: %w", err)
	}
	return nil
}

// DecodeFileHandle reads an nfs_fh3 and returns its raw bytes. The length
// is checked against FHSize before anything is allocated; the contents are
// not interpreted (see handles.Manager.Decompose).
func DecodeFileHandle(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("read handle length: %w", err)
	}
	if length > FHSize {
		return nil, fmt.Errorf("file handle length %d exceeds maximum %d", length, FHSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read handle data: %w", err)
	}

	// Skip padding to 4-byte boundary
	padding := (4 - (length % 4)) % 4
	if padding > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(padding)); err != nil {
			return nil, fmt.Errorf("skip padding: %w", err)
		}
	}

	return data, nil
}

// EncodePostOpFileHandle writes a post_op_fh3. The handle is only written
// when p.Follows is set.
func EncodePostOpFileHandle(w io.Writer, p handles.PostOp) error {
	var follows uint32
	if p.Follows {
		follows = 1
	}
	if err := binary.Write(w, binary.BigEndian, follows); err != nil {
		return fmt.Errorf("write handle_follows: %w", err)
	}
	if !p.Follows {
		return nil
	}
	return EncodeFileHandle(w, p.Handle)
}

// DecodeDirOpArgs decodes a diropargs3 from data.
func DecodeDirOpArgs(data []byte) (*DirOpArgs, error) {
	r := bytes.NewReader(data)

	dir, err := DecodeFileHandle(r)
	if err != nil {
		return nil, fmt.Errorf("decode directory handle: %w", err)
	}

	var name struct{ Name string }
	if _, err := xdr.Unmarshal(r, &name); err != nil {
		return nil, fmt.Errorf("decode name: %w", err)
	}

	return &DirOpArgs{Dir: dir, Name: name.Name}, nil
}

// Encode serializes the arguments, mainly for clients and tests.
func (a *DirOpArgs) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeRawFileHandle(&buf, a.Dir); err != nil {
		return nil, err
	}
	if _, err := xdr.Marshal(&buf, &struct{ Name string }{a.Name}); err != nil {
		return nil, fmt.Errorf("encode name: %w", err)
	}
	return buf.Bytes(), nil
}
