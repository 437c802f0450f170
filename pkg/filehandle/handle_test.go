package filehandle_test

import (
	"testing"

	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	tests := []struct {
		ino  uint32
		want byte
	}{
		{0, 0},
		{1, 1},
		{255, 255},
		{256, 3},
		{263, 10},
		{0x010000, 0x05},
		{0x123456, 0x4C},
		{0xFF000000, 0x00},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, filehandle.Hash(tt.ino), "Hash(%#x)", tt.ino)
	}
}

func TestHash_IgnoresHighBits(t *testing.T) {
	for _, ino := range []uint32{1, 42, 0xABCDEF, 0x00FFFFFF} {
		assert.Equal(t, filehandle.Hash(ino), filehandle.Hash(ino|0xFF000000))
	}
}

func TestEncodeLayout(t *testing.T) {
	h, err := filehandle.New(0x01020304, 0x0A0B0C0D, 0xDEADBEEF, []byte{0x11, 0x22})
	require.NoError(t, err)

	want := []byte{
		2,
		0x01, 0x02, 0x03, 0x04,
		0x0A, 0x0B, 0x0C, 0x0D,
		0xDE, 0xAD, 0xBE, 0xEF,
		0x11, 0x22,
	}
	assert.Equal(t, want, h.Bytes())
	assert.Equal(t, 15, h.Len())

	decoded, err := filehandle.Decode(want)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), decoded.Device())
	assert.Equal(t, uint32(0x0A0B0C0D), decoded.Inode())
	assert.Equal(t, uint32(0xDEADBEEF), decoded.Generation())
	assert.Equal(t, []byte{0x11, 0x22}, decoded.ComponentHashes())
}

func TestValidateEncoding(t *testing.T) {
	full, err := filehandle.New(1, 2, 3, []byte{4, 5, 6})
	require.NoError(t, err)
	raw := full.Bytes()

	tests := []struct {
		name string
		raw  []byte
		want bool
	}{
		{"Nil", nil, false},
		{"Empty", []byte{}, false},
		{"ShortHeader", make([]byte, filehandle.HeaderSize-1), false},
		{"RootHeaderOnly", make([]byte, filehandle.HeaderSize), true},
		{"Complete", raw, true},
		{"TruncatedHash", raw[:len(raw)-1], false},
		{"HeaderOnlyButDepth3", raw[:filehandle.HeaderSize], false},
		{"TrailingByte", append(append([]byte{}, raw...), 0), false},
		{"MaxSize", append([]byte{filehandle.MaxDepth}, make([]byte, filehandle.MaxHandleSize-1)...), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filehandle.ValidateEncoding(tt.raw))
		})
	}
}

func TestDecode_RejectsMalformed(t *testing.T) {
	h, err := filehandle.Decode([]byte{5, 0, 0, 0, 1})
	assert.Equal(t, filehandle.ErrInvalidHandle, filehandle.CodeOf(err))
	assert.False(t, h.IsValid())
}

func TestDecode_DoesNotAlias(t *testing.T) {
	raw := []byte{1, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 0, 0x77}

	h, err := filehandle.Decode(raw)
	require.NoError(t, err)
	raw[13] = 0x00

	assert.Equal(t, byte(0x77), h.ComponentHash(0))
}

func TestNew(t *testing.T) {
	hashes := []byte{1, 2}
	h, err := filehandle.New(1, 2, 3, hashes)
	require.NoError(t, err)
	hashes[0] = 9
	assert.Equal(t, byte(1), h.ComponentHash(0), "New copies its input")

	_, err = filehandle.New(1, 2, 3, make([]byte, filehandle.MaxDepth))
	require.NoError(t, err)

	_, err = filehandle.New(1, 2, 3, make([]byte, filehandle.MaxDepth+1))
	assert.True(t, filehandle.IsCode(err, filehandle.ErrDepthExceeded))
}

func TestIsValid(t *testing.T) {
	assert.False(t, filehandle.Invalid.IsValid())

	tests := []struct {
		dev, ino uint32
		want     bool
	}{
		{0, 0, false},
		{1, 0, false},
		{0, 1, false},
		{1, 1, true},
	}
	for _, tt := range tests {
		h, err := filehandle.New(tt.dev, tt.ino, 0, []byte{1})
		require.NoError(t, err)
		assert.Equal(t, tt.want, h.IsValid(), "dev=%d ino=%d", tt.dev, tt.ino)
	}
}

func TestUnmarshalBinary(t *testing.T) {
	orig, err := filehandle.New(7, 8, 9, []byte{10})
	require.NoError(t, err)
	data, err := orig.MarshalBinary()
	require.NoError(t, err)

	var h filehandle.FileHandle
	require.NoError(t, h.UnmarshalBinary(data))
	assert.True(t, h.Equal(orig))

	assert.Error(t, h.UnmarshalBinary(data[:5]))
}

func TestString(t *testing.T) {
	h, err := filehandle.New(1, 2, 3, []byte{4})
	require.NoError(t, err)
	assert.Equal(t, "fh{dev=1 ino=2 gen=3 depth=1}", h.String())
}
