//go:build !linux && !darwin

package filehandle

// No host filesystem support: callers must supply an FS explicitly.
const (
	platformGenerationMode    = GenerationInode
	nativeGenerationSupported = false
)

// DefaultFS returns nil: this platform has no host filesystem support.
func DefaultFS() FS { return nil }

func ioctlGeneration(fd uintptr) (uint32, error) {
	return 0, newError(ErrNotSupported, "generation query not supported on this platform", "", nil)
}
