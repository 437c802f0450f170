package filehandle

import (
	"io"
)

// POSIX file type bits, as found in st_mode. They are identical on every
// platform this package supports.
const (
	ModeTypeMask    uint32 = 0o170000
	ModeSocket      uint32 = 0o140000
	ModeSymlink     uint32 = 0o120000
	ModeRegular     uint32 = 0o100000
	ModeBlockDevice uint32 = 0o060000
	ModeDir         uint32 = 0o040000
	ModeCharDevice  uint32 = 0o020000
	ModeFIFO        uint32 = 0o010000
)

// Stat is the subset of filesystem metadata this package consumes.
type Stat struct {
	Dev   uint64
	Ino   uint64
	Mode  uint32
	Nlink uint64
	Size  int64

	// Gen is the platform's native generation number. It is only
	// meaningful when HasGen is set.
	Gen    uint32
	HasGen bool
}

// IsDir reports whether the object is a directory.
func (s Stat) IsDir() bool { return s.Mode&ModeTypeMask == ModeDir }

// IsRegular reports whether the object is a regular file.
func (s Stat) IsRegular() bool { return s.Mode&ModeTypeMask == ModeRegular }

// IsSymlink reports whether the object is a symbolic link.
func (s Stat) IsSymlink() bool { return s.Mode&ModeTypeMask == ModeSymlink }

// Identity returns the (device, inode) pair truncated to the 32-bit widths
// carried in a handle.
func (s Stat) Identity() (dev, ino uint32) {
	return uint32(s.Dev), uint32(s.Ino)
}

// Dir is an open directory stream. *os.File satisfies it.
type Dir interface {
	// Readdirnames returns up to n entry names; at the end of the
	// directory it returns an empty slice and io.EOF.
	Readdirnames(n int) ([]string, error)
	io.Closer
}

// File is an open descriptor used for generation queries. *os.File
// satisfies it.
type File interface {
	Fd() uintptr
	io.Closer
}

// FS is the raw filesystem access used by the codec, resolver and caches.
//
// Implementations never follow a final symbolic link in Lstat. OpenDir
// follows symbolic links like opendir(3) does.
type FS interface {
	// Lstat returns metadata for name without following a final symlink.
	Lstat(name string) (Stat, error)

	// Fstat returns metadata for an open descriptor.
	Fstat(f File) (Stat, error)

	// OpenDir opens a directory for listing.
	OpenDir(name string) (Dir, error)

	// Open opens name read-only.
	Open(name string) (File, error)
}
