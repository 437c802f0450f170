//go:build linux && (mips || mipsle)

package filehandle

// fsIocGetVersion is FS_IOC_GETVERSION, _IOR('v', 1, long). Read is
// encoded as 2<<29 on these architectures.
const fsIocGetVersion = 0x40047601
