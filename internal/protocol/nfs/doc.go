// Package nfs implements the handle-producing NFSv3 procedures on top of a
// handles.Manager.
//
// # Handle flow
//
// Every request handle goes through Manager.Decompose, which validates the
// encoding before touching the filesystem. Replies carry handles built by
// the Manager, encoded by package xdr.
//
// Errors from the handle layer are mapped with xdr.MapErrorToStatus:
//
//   - a malformed handle is NFS3ERR_BADHANDLE
//   - a handle whose object cannot be found is NFS3ERR_STALE
//   - a missing name is NFS3ERR_NOENT
//   - a throttled search is NFS3ERR_JUKEBOX, so the client retries
package nfs
