package memfs_test

import (
	"io"
	"testing"

	"github.com/marmos91/nfsfh/pkg/filehandle/memfs"
	fhtesting "github.com/marmos91/nfsfh/pkg/filehandle/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) *fhtesting.Fixture {
	fsys := memfs.New(7)
	abs := func(rel string) string { return "/" + rel }

	return &fhtesting.Fixture{
		FS:   fsys,
		Root: "/",
		Mkdir: func(rel string) error {
			_, err := fsys.Mkdir(abs(rel))
			return err
		},
		WriteFile: func(rel string) error {
			_, err := fsys.Create(abs(rel))
			return err
		},
		Remove: func(rel string) error {
			return fsys.Remove(abs(rel))
		},
		Rename: func(oldRel, newRel string) error {
			return fsys.Rename(abs(oldRel), abs(newRel))
		},
	}
}

func TestMemFS_Conformance(t *testing.T) {
	suite := &fhtesting.CodecTestSuite{NewFixture: newFixture}
	suite.Run(t)
}

func TestMemFS_Subtree(t *testing.T) {
	suite := &fhtesting.CodecTestSuite{NewFixture: func(t *testing.T) *fhtesting.Fixture {
		fsys := memfs.New(7)
		require.NoError(t, fsys.MkdirAll("/export"))
		abs := func(rel string) string { return "/export/" + rel }
		return &fhtesting.Fixture{
			FS:   fsys,
			Root: "/export",
			Mkdir: func(rel string) error {
				_, err := fsys.Mkdir(abs(rel))
				return err
			},
			WriteFile: func(rel string) error {
				_, err := fsys.Create(abs(rel))
				return err
			},
			Remove: func(rel string) error { return fsys.Remove(abs(rel)) },
			Rename: func(o, n string) error { return fsys.Rename(abs(o), abs(n)) },
		}
	}}
	suite.Run(t)
}

func TestMemFS_ReaddirOrder(t *testing.T) {
	fsys := memfs.New(1)
	for _, name := range []string{"/c", "/a", "/b"} {
		_, err := fsys.Create(name)
		require.NoError(t, err)
	}

	d, err := fsys.OpenDir("/")
	require.NoError(t, err)
	assert.Equal(t, 1, fsys.OpenDirs())

	first, err := d.Readdirnames(2)
	require.NoError(t, err)
	assert.Equal(t, []string{".", ".."}, first)

	rest, err := d.Readdirnames(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, rest)

	_, err = d.Readdirnames(10)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Zero(t, fsys.OpenDirs())
}

func TestMemFS_ExplicitInodes(t *testing.T) {
	fsys := memfs.New(3)
	require.NoError(t, fsys.MkdirIno("/d", 263))
	require.NoError(t, fsys.CreateIno("/d/f", 10))

	st, err := fsys.Lstat("/d/f")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), st.Ino)
	assert.Equal(t, uint64(3), st.Dev)
	assert.True(t, st.IsRegular())

	st, err = fsys.Lstat("/d/./f")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), st.Ino)

	root, err := fsys.Lstat("/")
	require.NoError(t, err)
	assert.Equal(t, uint64(memfs.RootInode), root.Ino)
	assert.True(t, root.IsDir())
}

func TestMemFS_SymlinkNotFollowedByLstat(t *testing.T) {
	fsys := memfs.New(1)
	require.NoError(t, fsys.MkdirAll("/target"))
	_, err := fsys.Symlink("/target", "/link")
	require.NoError(t, err)

	st, err := fsys.Lstat("/link")
	require.NoError(t, err)
	assert.True(t, st.IsSymlink())

	// OpenDir follows it.
	d, err := fsys.OpenDir("/link")
	require.NoError(t, err)
	require.NoError(t, d.Close())
}

func TestMemFS_Errors(t *testing.T) {
	fsys := memfs.New(1)
	_, err := fsys.Create("/f")
	require.NoError(t, err)

	_, err = fsys.Create("/f")
	assert.Error(t, err, "already exists")

	_, err = fsys.Lstat("/missing")
	assert.Error(t, err)

	_, err = fsys.OpenDir("/f")
	assert.Error(t, err, "not a directory")

	_, err = fsys.Create("/f/child")
	assert.Error(t, err)

	require.NoError(t, fsys.MkdirAll("/d/e"))
	assert.Error(t, fsys.Remove("/d"), "directory not empty")
}

func TestMemFS_Link(t *testing.T) {
	fsys := memfs.New(1)
	require.NoError(t, fsys.CreateIno("/a", 50))
	require.NoError(t, fsys.Link("/a", "/b"))

	st, err := fsys.Lstat("/b")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), st.Ino)
	assert.Equal(t, uint64(2), st.Nlink)

	require.NoError(t, fsys.Remove("/a"))
	st, err = fsys.Lstat("/b")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.Nlink)
}

func TestMemFS_OpenAndFstat(t *testing.T) {
	fsys := memfs.New(1)
	require.NoError(t, fsys.CreateIno("/f", 9))

	f, err := fsys.Open("/f")
	require.NoError(t, err)
	assert.Equal(t, uintptr(9), f.Fd())
	assert.Equal(t, 1, fsys.OpenFiles())

	st, err := fsys.Fstat(f)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), st.Ino)

	require.NoError(t, f.Close())
	assert.Zero(t, fsys.OpenFiles())
}
