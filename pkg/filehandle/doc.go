// Package filehandle turns filesystem paths into opaque NFS filehandles and
// turns those handles back into paths.
//
// The server keeps no persistent handle table. A handle therefore carries
// the object's identity (device, inode, generation) together with one 8-bit
// hash per path component, from the first directory below the export root
// down to and including the object itself:
//
//	+-------+--------+--------+------------+------------------+
//	| depth | device | inode  | generation | hashes[depth]    |
//	| u8    | u32 BE | u32 BE | u32 BE     | depth x u8       |
//	+-------+--------+--------+------------+------------------+
//
// Resolution walks the live directory tree from the root, descending only
// into entries whose inode hash matches the recorded component hash. The
// hash is a pruning heuristic: a match is only final when the full
// (device, inode) pair matches, and false descents are abandoned by
// backtracking.
//
// The package is built from four pieces:
//   - Codec: composes, extends and validates handles
//   - Resolver: bounded recursive directory search
//   - GenerationResolver: best-effort inode generation numbers
//   - StatCache: single-slot snapshot of the most recent stat
//
// Callers that want caching should use pkg/handles, which wraps the Codec
// and Resolver with a path cache.
package filehandle
