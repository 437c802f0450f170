//go:build linux && (386 || arm)

package filehandle

// fsIocGetVersion is FS_IOC_GETVERSION, _IOR('v', 1, long).
const fsIocGetVersion = 0x80047601
