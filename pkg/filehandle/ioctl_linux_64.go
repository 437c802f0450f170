//go:build linux && (amd64 || arm64 || riscv64 || loong64 || s390x)

package filehandle

// fsIocGetVersion is FS_IOC_GETVERSION, _IOR('v', 1, long).
const fsIocGetVersion = 0x80087601
