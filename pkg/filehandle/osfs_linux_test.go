//go:build linux

package filehandle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestFsIocGetVersionEncoding(t *testing.T) {
	const req = uint64(fsIocGetVersion)

	assert.Equal(t, uint64(1), req&0xff, "command number")
	assert.Equal(t, uint64('v'), (req>>8)&0xff, "ioctl type")
	assert.Equal(t, uint64(unsafe.Sizeof(uintptr(0))), (req>>16)&0x1fff, "argument is a long")
	assert.NotZero(t, req>>29, "read direction")
}

func TestIoctlGeneration(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	f, err := os.Open(file)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	_, err = ioctlGeneration(f.Fd())
	if errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.EINVAL) {
		t.Skipf("filesystem has no generation numbers: %v", err)
	}
	require.NoError(t, err)
}
