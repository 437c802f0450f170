package mount

// Mount protocol (RFC 1813 Appendix I).
const (
	// Program is the MOUNT program number.
	Program = 100005

	// Version is MOUNT version 3.
	Version = 3

	// MountProcNull - Do nothing (connectivity test)
	MountProcNull = 0

	// MountProcMnt - Add mount entry
	MountProcMnt = 1
)

// Mount Status Codes
// These are the error codes that can be returned by Mount protocol procedures.
const (
	// MountOK - Success
	MountOK = 0

	// MountErrNoEnt - No such file or directory
	MountErrNoEnt = 2

	// MountErrIO - I/O error
	MountErrIO = 5

	// MountErrAccess - Permission denied
	MountErrAccess = 13

	// MountErrNotDir - Not a directory
	MountErrNotDir = 20

	// MountErrInval - Invalid argument
	MountErrInval = 22

	// MountErrNameTooLong - Filename too long
	MountErrNameTooLong = 63

	// MountErrNotSupp - Operation not supported
	MountErrNotSupp = 10004

	// MountErrServerFault - Server fault
	MountErrServerFault = 10006
)

// Authentication flavors advertised in a successful MNT reply.
const (
	AuthNull = 0
	AuthUnix = 1
)
