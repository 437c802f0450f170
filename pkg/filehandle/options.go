package filehandle

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxPathLen bounds the paths built during resolution (NFS_MAXPATHLEN).
// Entries whose path would be longer are skipped.
const MaxPathLen = 4096

// Options configures a Codec or Resolver.
type Options struct {
	// FS is the filesystem to query. Defaults to OSFS on supported
	// platforms.
	FS FS

	// Root is the directory handles are relative to. A handle of depth 0
	// always names Root. Defaults to "/".
	Root string

	// MaxDepth is the deepest path a composed or extended handle may
	// record. Defaults to (and may not exceed) MaxDepth.
	MaxDepth int

	// Generation obtains generation numbers for new handles. Defaults to
	// the platform strategy (GenerationAuto).
	Generation GenerationResolver
}

func (o Options) normalize() (Options, error) {
	if o.FS == nil {
		o.FS = DefaultFS()
		if o.FS == nil {
			return o, fmt.Errorf("no host filesystem support on this platform: FS must be set")
		}
	}

	if o.Root == "" {
		o.Root = "/"
	}
	if !filepath.IsAbs(o.Root) {
		return o, fmt.Errorf("root %q must be an absolute path", o.Root)
	}
	o.Root = filepath.Clean(o.Root)

	switch {
	case o.MaxDepth == 0:
		o.MaxDepth = MaxDepth
	case o.MaxDepth < 0 || o.MaxDepth > MaxDepth:
		return o, fmt.Errorf("max depth %d out of range [1, %d]", o.MaxDepth, MaxDepth)
	}

	if o.Generation == nil {
		gen, err := NewGenerationResolver(GenerationAuto, o.FS)
		if err != nil {
			return o, err
		}
		o.Generation = gen
	}

	return o, nil
}

// joinPath appends one entry name to a directory path.
func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// WithinRoot reports whether the absolute path is root itself or lies
// below it.
func WithinRoot(root, path string) bool {
	if !filepath.IsAbs(path) {
		return false
	}
	path = filepath.Clean(path)
	return path == root || root == "/" || strings.HasPrefix(path, root+"/")
}

// components splits a cleaned absolute path into the names below root.
// It returns nil for root itself.
func components(root, path string) ([]string, error) {
	if !filepath.IsAbs(path) {
		return nil, newError(ErrInvalidPath, "path is not absolute", path, nil)
	}
	path = filepath.Clean(path)

	if path == root {
		return nil, nil
	}
	if !WithinRoot(root, path) {
		return nil, newError(ErrInvalidPath, "path is outside the export root", path, nil)
	}

	rel := path[1:]
	if root != "/" {
		rel = path[len(root)+1:]
	}

	return strings.Split(rel, "/"), nil
}
