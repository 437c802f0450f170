package filehandle_test

import (
	"errors"
	"testing"

	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/marmos91/nfsfh/pkg/filehandle/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Inode pairs with equal hashes: Hash(10) == Hash(263) == 10 and
// Hash(20) == Hash(273) == 20.
const (
	inoA      = 10
	inoB      = 263
	inoDecoyC = 20
	inoC      = 273
)

func newMemEnv(t *testing.T, fsys *memfs.FS) (*filehandle.Codec, *filehandle.Resolver, *filehandle.StatCache) {
	t.Helper()

	gen, err := filehandle.NewGenerationResolver(filehandle.GenerationInode, fsys)
	require.NoError(t, err)
	opts := filehandle.Options{FS: fsys, Generation: gen}
	stats := filehandle.NewStatCache()

	codec, err := filehandle.NewCodec(opts, stats)
	require.NoError(t, err)
	resolver, err := filehandle.NewResolver(opts, stats)
	require.NoError(t, err)
	return codec, resolver, stats
}

// collisionTree builds /a/c/decoy and /b/c/f where /a collides with /b and
// /a/c collides with /b/c. /a sorts first, so the search for /b/c/f must
// descend two levels into /a and backtrack.
func collisionTree(t *testing.T) *memfs.FS {
	t.Helper()

	require.Equal(t, filehandle.Hash(inoA), filehandle.Hash(inoB))
	require.Equal(t, filehandle.Hash(inoDecoyC), filehandle.Hash(inoC))

	fsys := memfs.New(1)
	require.NoError(t, fsys.MkdirIno("/a", inoA))
	require.NoError(t, fsys.MkdirIno("/a/c", inoDecoyC))
	require.NoError(t, fsys.CreateIno("/a/c/decoy", 30))
	require.NoError(t, fsys.MkdirIno("/b", inoB))
	require.NoError(t, fsys.MkdirIno("/b/c", inoC))
	require.NoError(t, fsys.CreateIno("/b/c/f", 40))
	return fsys
}

func TestResolver_BacktracksOverHashCollisions(t *testing.T) {
	fsys := collisionTree(t)
	codec, resolver, _ := newMemEnv(t, fsys)

	h, err := codec.Compose("/b/c/f", false)
	require.NoError(t, err)
	require.Equal(t, 3, h.Depth())
	assert.Equal(t, filehandle.Hash(inoA), h.ComponentHash(0))

	path, err := resolver.Decompose(h)
	require.NoError(t, err)
	assert.Equal(t, "/b/c/f", path)

	assert.Zero(t, fsys.OpenDirs(), "every directory stream is closed")
}

func TestResolver_CollidingDirectoryIsNotAMatch(t *testing.T) {
	fsys := collisionTree(t)
	codec, resolver, _ := newMemEnv(t, fsys)

	h, err := codec.Compose("/b/c", true)
	require.NoError(t, err)

	path, err := resolver.Decompose(h)
	require.NoError(t, err)
	assert.Equal(t, "/b/c", path, "/a/c has the same hashes but a different inode")
}

func TestResolver_NoDescentPastDepth(t *testing.T) {
	fsys := memfs.New(1)
	require.NoError(t, fsys.MkdirAll("/d/deeper"))
	_, err := fsys.Create("/d/f")
	require.NoError(t, err)

	codec, resolver, _ := newMemEnv(t, fsys)
	h, err := codec.Compose("/d/f", false)
	require.NoError(t, err)

	// Moved one level deeper: the handle records depth 2 only.
	require.NoError(t, fsys.Rename("/d/f", "/d/deeper/f"))

	_, err = resolver.Decompose(h)
	assert.True(t, filehandle.IsCode(err, filehandle.ErrNotFound))
	assert.Zero(t, fsys.OpenDirs())
}

func TestResolver_MovedAcrossDirectories(t *testing.T) {
	fsys := memfs.New(1)
	require.NoError(t, fsys.MkdirIno("/x", 50))
	require.NoError(t, fsys.MkdirIno("/y", 51))
	require.NoError(t, fsys.CreateIno("/x/f", 60))

	codec, resolver, _ := newMemEnv(t, fsys)
	h, err := codec.Compose("/x/f", false)
	require.NoError(t, err)

	require.NoError(t, fsys.Rename("/x/f", "/y/f"))
	_, err = resolver.Decompose(h)
	assert.True(t, filehandle.IsCode(err, filehandle.ErrNotFound),
		"parent hash differs, so the moved object is not reachable")
}

func TestResolver_HardLinkInSameDirectory(t *testing.T) {
	fsys := memfs.New(1)
	require.NoError(t, fsys.MkdirAll("/d"))
	require.NoError(t, fsys.CreateIno("/d/one", 77))
	require.NoError(t, fsys.Link("/d/one", "/d/two"))

	codec, resolver, _ := newMemEnv(t, fsys)
	h, err := codec.Compose("/d/one", false)
	require.NoError(t, err)

	require.NoError(t, fsys.Remove("/d/one"))
	path, err := resolver.Decompose(h)
	require.NoError(t, err)
	assert.Equal(t, "/d/two", path)
}

func TestResolver_SkipsUnstattableEntries(t *testing.T) {
	fsys := collisionTree(t)
	codec, resolver, stats := newMemEnv(t, fsys)

	h, err := codec.Compose("/b/c/f", false)
	require.NoError(t, err)

	// /a fails to stat: it is treated as (0, 0) and its hash is Hash(0).
	fsys.SetLstatError("/a", errors.New("permission denied"))

	path, err := resolver.Decompose(h)
	require.NoError(t, err)
	assert.Equal(t, "/b/c/f", path)

	st, valid := stats.Get()
	require.True(t, valid)
	assert.Equal(t, uint64(40), st.Ino)
}

func TestResolver_ExportRoot(t *testing.T) {
	fsys := memfs.New(1)
	require.NoError(t, fsys.MkdirAll("/export/data"))
	_, err := fsys.Create("/export/data/f")
	require.NoError(t, err)
	_, err = fsys.Create("/outside")
	require.NoError(t, err)

	gen, err := filehandle.NewGenerationResolver(filehandle.GenerationInode, fsys)
	require.NoError(t, err)
	opts := filehandle.Options{FS: fsys, Root: "/export", Generation: gen}

	codec, err := filehandle.NewCodec(opts, nil)
	require.NoError(t, err)
	resolver, err := filehandle.NewResolver(opts, nil)
	require.NoError(t, err)

	h, err := codec.Compose("/export/data/f", false)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Depth(), "depth is relative to the export root")

	path, err := resolver.Decompose(h)
	require.NoError(t, err)
	assert.Equal(t, "/export/data/f", path)

	_, err = codec.Compose("/outside", false)
	assert.True(t, filehandle.IsCode(err, filehandle.ErrInvalidPath))

	root, err := codec.Compose("/export", true)
	require.NoError(t, err)
	path, err = resolver.Decompose(root)
	require.NoError(t, err)
	assert.Equal(t, "/export", path)
}

func TestWithinRoot(t *testing.T) {
	tests := []struct {
		root string
		path string
		want bool
	}{
		{"/", "/", true},
		{"/", "/etc/shadow", true},
		{"/srv", "/srv", true},
		{"/srv", "/srv/data/f", true},
		{"/srv", "/srv/data/../x", true},
		{"/srv", "/srvx/f", false},
		{"/srv", "/etc/shadow", false},
		{"/srv", "/srv/../etc", false},
		{"/srv", "srv/data", false},
	}
	for _, tt := range tests {
		t.Run(tt.root+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, filehandle.WithinRoot(tt.root, tt.path))
		})
	}
}

func TestOptions_Validation(t *testing.T) {
	fsys := memfs.New(1)

	tests := []struct {
		name string
		opts filehandle.Options
	}{
		{"RelativeRoot", filehandle.Options{FS: fsys, Root: "export"}},
		{"NegativeDepth", filehandle.Options{FS: fsys, MaxDepth: -1}},
		{"DepthTooLarge", filehandle.Options{FS: fsys, MaxDepth: filehandle.MaxDepth + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := filehandle.NewCodec(tt.opts, nil)
			assert.Error(t, err)
			_, err = filehandle.NewResolver(tt.opts, nil)
			assert.Error(t, err)
		})
	}
}

func TestResolver_RootHandleRefreshesStatCache(t *testing.T) {
	fsys := collisionTree(t)
	codec, resolver, stats := newMemEnv(t, fsys)

	f, err := codec.Compose("/b/c/f", false)
	require.NoError(t, err)
	root, err := codec.Compose("/", true)
	require.NoError(t, err)

	_, err = resolver.Decompose(f)
	require.NoError(t, err)
	st, ok := stats.Get()
	require.True(t, ok)
	require.False(t, st.IsDir())

	path, err := resolver.Decompose(root)
	require.NoError(t, err)
	assert.Equal(t, "/", path)

	st, ok = stats.Get()
	require.True(t, ok)
	assert.True(t, st.IsDir(), "stat cache must describe the root, not the previous object")
	assert.Equal(t, uint64(memfs.RootInode), st.Ino)
}

func TestResolver_RootHandleUnstattableRoot(t *testing.T) {
	fsys := collisionTree(t)
	codec, resolver, stats := newMemEnv(t, fsys)

	root, err := codec.Compose("/", true)
	require.NoError(t, err)
	stats.Set(filehandle.Stat{Ino: 99})

	fsys.SetLstatError("/", errors.New("io error"))
	path, err := resolver.Decompose(root)
	require.NoError(t, err, "a depth-0 handle always names the root")
	assert.Equal(t, "/", path)

	_, ok := stats.Get()
	assert.False(t, ok)
}
