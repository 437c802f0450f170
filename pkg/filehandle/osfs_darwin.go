package filehandle

import (
	"golang.org/x/sys/unix"
)

// Darwin reports st_gen directly (zero unless running as root).
const (
	platformGenerationMode    = GenerationNative
	nativeGenerationSupported = true
)

func statFromUnix(st *unix.Stat_t) Stat {
	return Stat{
		Dev:    uint64(st.Dev),
		Ino:    uint64(st.Ino),
		Mode:   uint32(st.Mode),
		Nlink:  uint64(st.Nlink),
		Size:   int64(st.Size),
		Gen:    uint32(st.Gen),
		HasGen: true,
	}
}

func ioctlGeneration(fd uintptr) (uint32, error) {
	return 0, newError(ErrNotSupported, "generation query not supported on darwin", "", nil)
}
