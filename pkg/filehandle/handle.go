package filehandle

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the size of the fixed handle header:
	// depth (1) + device (4) + inode (4) + generation (4).
	HeaderSize = 13

	// MaxHandleSize is the largest handle NFSv3 can carry (NFS3_FHSIZE).
	MaxHandleSize = 64

	// MaxDepth is the deepest path a handle can encode. Configured depth
	// limits must not exceed it.
	MaxDepth = MaxHandleSize - HeaderSize
)

// FileHandle is an immutable, decoded filehandle.
//
// The zero value is the reserved invalid sentinel (device 0, inode 0). A
// FileHandle never shares its hash storage with another value: every
// constructor copies.
type FileHandle struct {
	dev    uint32
	ino    uint32
	gen    uint32
	hashes []byte
}

// Invalid is the sentinel handle returned alongside errors.
var Invalid = FileHandle{}

// New builds a handle from its fields. The hash slice is copied.
func New(dev, ino, gen uint32, hashes []byte) (FileHandle, error) {
	if len(hashes) > MaxDepth {
		return Invalid, newError(ErrDepthExceeded,
			fmt.Sprintf("handle depth %d exceeds maximum %d", len(hashes), MaxDepth), "", nil)
	}
	h := FileHandle{dev: dev, ino: ino, gen: gen}
	if len(hashes) > 0 {
		h.hashes = bytes.Clone(hashes)
	}
	return h, nil
}

// Device returns the filesystem device identifier (truncated to 32 bits).
func (h FileHandle) Device() uint32 { return h.dev }

// Inode returns the inode number (truncated to 32 bits).
func (h FileHandle) Inode() uint32 { return h.ino }

// Generation returns the generation number, 0 if unavailable.
func (h FileHandle) Generation() uint32 { return h.gen }

// Depth returns the number of recorded path-component hashes.
// Depth 0 denotes the root directory.
func (h FileHandle) Depth() int { return len(h.hashes) }

// ComponentHash returns the hash recorded for path component i.
func (h FileHandle) ComponentHash(i int) byte { return h.hashes[i] }

// ComponentHashes returns a copy of the recorded path-component hashes.
func (h FileHandle) ComponentHashes() []byte { return bytes.Clone(h.hashes) }

// IsValid reports whether h identifies a real object.
// The sentinel (device 0, inode 0) is never valid.
func (h FileHandle) IsValid() bool {
	return h.dev != 0 && h.ino != 0
}

// Len returns the encoded size of h in bytes.
func (h FileHandle) Len() int {
	return HeaderSize + len(h.hashes)
}

// Equal reports whether two handles encode to the same bytes.
func (h FileHandle) Equal(other FileHandle) bool {
	return h.dev == other.dev && h.ino == other.ino && h.gen == other.gen &&
		bytes.Equal(h.hashes, other.hashes)
}

// Bytes encodes h into its wire representation. The returned slice is
// freshly allocated.
func (h FileHandle) Bytes() []byte {
	buf := make([]byte, h.Len())
	buf[0] = byte(len(h.hashes))
	binary.BigEndian.PutUint32(buf[1:5], h.dev)
	binary.BigEndian.PutUint32(buf[5:9], h.ino)
	binary.BigEndian.PutUint32(buf[9:13], h.gen)
	copy(buf[HeaderSize:], h.hashes)
	return buf
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h FileHandle) MarshalBinary() ([]byte, error) {
	return h.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *FileHandle) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// String returns a compact human-readable form, used in logs.
func (h FileHandle) String() string {
	return fmt.Sprintf("fh{dev=%d ino=%d gen=%d depth=%d}", h.dev, h.ino, h.gen, len(h.hashes))
}

// ValidateEncoding reports whether raw is a structurally sound handle:
// at least HeaderSize bytes, and exactly HeaderSize plus the declared depth.
//
// This is the only defense against truncated or forged wire handles, so
// every handle received from the network must pass through it.
func ValidateEncoding(raw []byte) bool {
	if len(raw) < HeaderSize {
		return false
	}
	return len(raw) == HeaderSize+int(raw[0])
}

// Decode parses a wire handle. It fails with ErrInvalidHandle if raw does
// not pass ValidateEncoding. The result does not alias raw.
func Decode(raw []byte) (FileHandle, error) {
	if !ValidateEncoding(raw) {
		return Invalid, newError(ErrInvalidHandle,
			fmt.Sprintf("malformed file handle (%d bytes)", len(raw)), "", nil)
	}

	h := FileHandle{
		dev: binary.BigEndian.Uint32(raw[1:5]),
		ino: binary.BigEndian.Uint32(raw[5:9]),
		gen: binary.BigEndian.Uint32(raw[9:13]),
	}
	if depth := int(raw[0]); depth > 0 {
		h.hashes = bytes.Clone(raw[HeaderSize:])
	}
	return h, nil
}

// Hash is the 8-bit pruning hash stored for each path component.
//
// Only bits 0-23 of the inode contribute, so truncating a 64-bit inode to
// 32 bits before hashing does not change the result.
func Hash(ino uint32) byte {
	return byte(ino + 3*(ino>>8) + 5*(ino>>16))
}
