package xdr

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/marmos91/nfsfh/internal/logger"
	"github.com/marmos91/nfsfh/pkg/filehandle"
)

// NFSv3 status codes (RFC 1813 Section 2.6) produced by handle operations.
const (
	NFS3OK             = 0
	NFS3ErrNoEnt       = 2
	NFS3ErrIO          = 5
	NFS3ErrAcces       = 13
	NFS3ErrNotDir      = 20
	NFS3ErrInval       = 22
	NFS3ErrNameTooLong = 63
	NFS3ErrStale       = 70
	NFS3ErrBadHandle   = 10001
	NFS3ErrNotSupp     = 10004
	NFS3ErrJukebox     = 10008
)

// StatusFromError maps an error from the handle layer to an NFSv3 status.
//
// A missing name (fs.ErrNotExist anywhere in the chain) is NOENT; a handle
// whose object can no longer be found is STALE, so clients drop it instead
// of retrying.
func StatusFromError(err error) uint32 {
	if err == nil {
		return NFS3OK
	}
	if errors.Is(err, fs.ErrNotExist) {
		return NFS3ErrNoEnt
	}

	switch filehandle.CodeOf(err) {
	case filehandle.ErrInvalidHandle:
		return NFS3ErrBadHandle
	case filehandle.ErrNotFound:
		return NFS3ErrStale
	case filehandle.ErrDepthExceeded, filehandle.ErrNameTooLong:
		return NFS3ErrNameTooLong
	case filehandle.ErrInvalidName, filehandle.ErrInvalidPath:
		return NFS3ErrInval
	case filehandle.ErrNotDirectory:
		return NFS3ErrNotDir
	case filehandle.ErrNotSupported:
		return NFS3ErrNotSupp
	case filehandle.ErrThrottled:
		return NFS3ErrJukebox
	case filehandle.ErrStatFailure:
		return statusFromErrno(err)
	}
	return NFS3ErrIO
}

func statusFromErrno(err error) uint32 {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return NFS3ErrAcces
	case errors.Is(err, syscall.ENOTDIR):
		return NFS3ErrNotDir
	case errors.Is(err, syscall.ENAMETOOLONG):
		return NFS3ErrNameTooLong
	default:
		return NFS3ErrIO
	}
}

// MapErrorToStatus is StatusFromError plus audit logging. Client-caused
// failures log at Warn, server-side failures at Error.
func MapErrorToStatus(err error, clientIP, operation string) uint32 {
	status := StatusFromError(err)
	switch status {
	case NFS3OK:
	case NFS3ErrIO:
		logger.Error("%s failed: %v client=%s", operation, err, clientIP)
	default:
		logger.Warn("%s failed: %v status=%d client=%s", operation, err, status, clientIP)
	}
	return status
}
