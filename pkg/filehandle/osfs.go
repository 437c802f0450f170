//go:build linux || darwin

package filehandle

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// OSFS is the FS backed by the host operating system.
type OSFS struct{}

// Lstat implements FS.
func (OSFS) Lstat(name string) (Stat, error) {
	var st unix.Stat_t
	if err := unix.Lstat(name, &st); err != nil {
		return Stat{}, &os.PathError{Op: "lstat", Path: name, Err: err}
	}
	return statFromUnix(&st), nil
}

// Fstat implements FS.
func (OSFS) Fstat(f File) (Stat, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return Stat{}, fmt.Errorf("fstat: %w", err)
	}
	return statFromUnix(&st), nil
}

// OpenDir implements FS.
func (OSFS) OpenDir(name string) (Dir, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Open implements FS.
func (OSFS) Open(name string) (File, error) {
	f, err := os.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// DefaultFS returns the host filesystem, or nil where there is no
// host support.
func DefaultFS() FS { return OSFS{} }
