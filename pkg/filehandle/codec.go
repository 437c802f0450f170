package filehandle

import (
	"fmt"
	"path/filepath"
)

// Codec composes and extends filehandles.
//
// A Codec is safe for concurrent use. Its only shared state is the
// StatCache it was built with.
type Codec struct {
	fs       FS
	root     string
	maxDepth int
	gen      GenerationResolver
	stats    *StatCache
}

// NewCodec creates a Codec. If stats is nil a private StatCache is used.
func NewCodec(opts Options, stats *StatCache) (*Codec, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = NewStatCache()
	}

	return &Codec{
		fs:       opts.FS,
		root:     opts.Root,
		maxDepth: opts.MaxDepth,
		gen:      opts.Generation,
		stats:    stats,
	}, nil
}

// Root returns the export root handles are relative to.
func (c *Codec) Root() string { return c.root }

// MaxDepth returns the configured depth limit.
func (c *Codec) MaxDepth() int { return c.maxDepth }

// GenerationMode returns the generation strategy in use.
func (c *Codec) GenerationMode() GenerationMode { return c.gen.Mode() }

// StatCache returns the stat cache this codec populates.
func (c *Codec) StatCache() *StatCache { return c.stats }

// Generation returns the generation number for an already-stat'd object.
// f may be nil; see GenerationResolver.
func (c *Codec) Generation(st Stat, f File, path string) uint32 {
	return c.gen.Generation(st, f, path)
}

// Compose builds the handle for path.
//
// Every prefix of path below the root is lstat'd and contributes the hash
// of its inode, so the cost is one stat per path component. If requireDir
// is set, path must name a directory. On failure the returned handle is
// Invalid and the stat cache is cleared.
func (c *Codec) Compose(path string, requireDir bool) (FileHandle, error) {
	h, err := c.compose(path, requireDir)
	if err != nil {
		c.stats.Invalidate()
		return Invalid, err
	}
	return h, nil
}

func (c *Codec) compose(path string, requireDir bool) (FileHandle, error) {
	names, err := components(c.root, path)
	if err != nil {
		return Invalid, err
	}
	path = filepath.Clean(path)

	st, err := c.fs.Lstat(path)
	if err != nil {
		return Invalid, newError(ErrStatFailure, "cannot stat object", path, err)
	}
	if requireDir && !st.IsDir() {
		return Invalid, newError(ErrNotDirectory, "not a directory", path, nil)
	}

	dev, ino := st.Identity()
	h := FileHandle{dev: dev, ino: ino, gen: c.gen.Generation(st, nil, path)}

	if len(names) == 0 {
		return h, nil
	}
	if len(names) > c.maxDepth {
		return Invalid, newError(ErrDepthExceeded,
			fmt.Sprintf("path has %d components, maximum is %d", len(names), c.maxDepth), path, nil)
	}

	hashes := make([]byte, 0, len(names))
	prefix := c.root
	for _, name := range names {
		prefix = joinPath(prefix, name)

		pst, err := c.fs.Lstat(prefix)
		if err != nil {
			return Invalid, newError(ErrStatFailure, "cannot stat path component", prefix, err)
		}
		hashes = append(hashes, Hash(uint32(pst.Ino)))
	}
	h.hashes = hashes

	return h, nil
}

// Extend builds the handle of an object found directly inside the
// directory named by parent.
//
// The result copies parent's hashes, appends the hash of ino and takes the
// new identity. It never shares storage with parent. Fails with
// ErrDepthExceeded if parent is already at the depth limit.
func (c *Codec) Extend(parent FileHandle, dev, ino, gen uint32) (FileHandle, error) {
	depth := parent.Depth()
	if depth >= c.maxDepth {
		return Invalid, newError(ErrDepthExceeded,
			fmt.Sprintf("cannot extend handle at depth %d (maximum %d)", depth, c.maxDepth), "", nil)
	}

	hashes := make([]byte, depth+1)
	copy(hashes, parent.hashes)
	hashes[depth] = Hash(ino)

	return FileHandle{dev: dev, ino: ino, gen: gen, hashes: hashes}, nil
}

// ExtendStat extends parent with an object that has already been stat'd.
// f is an open descriptor for the object or nil.
func (c *Codec) ExtendStat(parent FileHandle, st Stat, f File, path string) (FileHandle, error) {
	dev, ino := st.Identity()
	return c.Extend(parent, dev, ino, c.gen.Generation(st, f, path))
}

// ExtendByLookup stats path and extends parent with it.
//
// It returns false if path cannot be stat'd or its mode does not contain
// all of requiredTypeBits (for example ModeDir after a MKDIR): the caller
// should then report that no handle follows. On success the stat cache
// holds the fresh snapshot, so an attribute fetch can reuse it.
func (c *Codec) ExtendByLookup(parent FileHandle, path string, requiredTypeBits uint32) (FileHandle, bool) {
	st, err := c.fs.Lstat(path)
	if err != nil || st.Mode&requiredTypeBits != requiredTypeBits {
		c.stats.Invalidate()
		return Invalid, false
	}

	c.stats.Set(st)

	h, err := c.ExtendStat(parent, st, nil, path)
	if err != nil {
		return Invalid, false
	}
	return h, true
}
