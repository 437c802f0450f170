package filehandle

import (
	"golang.org/x/sys/unix"
)

// Linux exposes generation numbers through FS_IOC_GETVERSION rather than
// in struct stat.
const (
	platformGenerationMode    = GenerationQuery
	nativeGenerationSupported = false
)

func statFromUnix(st *unix.Stat_t) Stat {
	return Stat{
		Dev:   uint64(st.Dev),
		Ino:   uint64(st.Ino),
		Mode:  uint32(st.Mode),
		Nlink: uint64(st.Nlink),
		Size:  int64(st.Size),
	}
}

// ioctlGeneration issues FS_IOC_GETVERSION on fd. Supported by ext2/3/4,
// xfs, btrfs and a few others; other filesystems return ENOTTY.
func ioctlGeneration(fd uintptr) (uint32, error) {
	v, err := unix.IoctlGetInt(int(fd), fsIocGetVersion)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
