package filehandle

import (
	"github.com/marmos91/nfsfh/internal/logger"
)

// readdirBatch is the number of names read from a directory at a time.
const readdirBatch = 256

// Resolver reconstructs paths from handles by searching the live tree.
//
// A Resolver is safe for concurrent use; it keeps no state besides the
// StatCache it refreshes on success.
type Resolver struct {
	fs    FS
	root  string
	stats *StatCache
}

// NewResolver creates a Resolver. Only the FS and Root options are used.
// If stats is nil a private StatCache is used.
func NewResolver(opts Options, stats *StatCache) (*Resolver, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = NewStatCache()
	}
	return &Resolver{fs: opts.FS, root: opts.Root, stats: stats}, nil
}

// Root returns the export root the search starts from.
func (r *Resolver) Root() string { return r.root }

// Decompose resolves h to a path.
//
// A depth-0 handle always names the root; the root is lstat'd only to
// refresh the stat cache. Any other handle triggers a
// search that descends only into entries whose inode hash matches the
// handle's component hash at that level, so it never goes deeper than
// h.Depth(). Only a full (device, inode) match ends the search; hash
// collisions cost an extra descent and are backtracked.
//
// Fails with ErrInvalidHandle for the sentinel and ErrNotFound if the
// object is no longer reachable along a hash-consistent path.
func (r *Resolver) Decompose(h FileHandle) (string, error) {
	if h.Depth() == 0 {
		if st, err := r.fs.Lstat(r.root); err == nil {
			r.stats.Set(st)
		} else {
			r.stats.Invalidate()
		}
		return r.root, nil
	}
	if !h.IsValid() {
		return "", newError(ErrInvalidHandle, "sentinel file handle", "", nil)
	}

	if path, ok := r.search(h, 0, r.root); ok {
		return path, nil
	}
	return "", newError(ErrNotFound, "object not found for "+h.String(), "", nil)
}

// search scans lead, the candidate directory for component pos.
func (r *Resolver) search(h FileHandle, pos int, lead string) (string, bool) {
	// Deeper than the handle records: the object is not below here.
	if pos == h.Depth() {
		return "", false
	}

	dir, err := r.fs.OpenDir(lead)
	if err != nil {
		return "", false
	}
	defer func() { _ = dir.Close() }()

	want := h.hashes[pos]
	for {
		names, readErr := dir.Readdirnames(readdirBatch)

		for _, name := range names {
			if len(lead)+len(name)+1 >= MaxPathLen {
				continue
			}
			obj := joinPath(lead, name)

			st, err := r.fs.Lstat(obj)
			if err != nil {
				// Vanished or unreadable: treat as the (0, 0) sentinel.
				st = Stat{}
			}

			dev, ino := st.Identity()
			if err == nil && dev == h.dev && ino == h.ino {
				r.stats.Set(st)
				return obj, true
			}

			if name == "." || name == ".." || Hash(ino) != want {
				continue
			}
			// Regular files and devices cannot contain the object.
			if err == nil && !st.IsDir() && !st.IsSymlink() {
				continue
			}

			if path, ok := r.search(h, pos+1, obj); ok {
				return path, true
			}
			logger.Debug("Handle search backtracked out of %s (depth %d) for %s", obj, pos+1, h)
		}

		if readErr != nil {
			break
		}
	}

	return "", false
}
