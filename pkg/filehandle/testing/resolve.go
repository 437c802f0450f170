package testing

import (
	"testing"

	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResolveTests executes all resolution tests.
func (suite *CodecTestSuite) RunResolveTests(t *testing.T) {
	t.Run("Root", suite.testResolveRoot)
	t.Run("RoundTrip", suite.testResolveRoundTrip)
	t.Run("RenameInSameDirectory", suite.testResolveRenameInSameDirectory)
	t.Run("Removed", suite.testResolveRemoved)
	t.Run("Sentinel", suite.testResolveSentinel)
	t.Run("FillsStatCache", suite.testResolveFillsStatCache)
}

func (suite *CodecTestSuite) testResolveRoot(t *testing.T) {
	e := suite.newEnv(t, 0)

	path, err := e.resolver.Decompose(e.compose(t, ""))
	require.NoError(t, err)
	assert.Equal(t, e.fx.Root, path)

	// Depth 0 names the root whatever the identity fields say.
	h, err := filehandle.New(1, 999999, 0, nil)
	require.NoError(t, err)
	path, err = e.resolver.Decompose(h)
	require.NoError(t, err)
	assert.Equal(t, e.fx.Root, path)
}

func (suite *CodecTestSuite) testResolveRoundTrip(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "a", "a/b", "a/b/c", "x", "x/y")
	e.files(t, "a/f1", "a/b/f2", "a/b/c/f3", "x/y/f4", "top")

	for _, rel := range []string{"a", "a/b", "a/b/c", "a/f1", "a/b/f2", "a/b/c/f3", "x/y/f4", "top"} {
		t.Run(rel, func(t *testing.T) {
			path, err := e.resolver.Decompose(e.compose(t, rel))
			require.NoError(t, err)
			assert.Equal(t, e.abs(rel), path)
		})
	}
}

func (suite *CodecTestSuite) testResolveRenameInSameDirectory(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "d")
	e.files(t, "d/old")

	h := e.compose(t, "d/old")
	require.NoError(t, e.fx.Rename("d/old", "d/new"))

	path, err := e.resolver.Decompose(h)
	require.NoError(t, err)
	assert.Equal(t, e.abs("d/new"), path)
}

func (suite *CodecTestSuite) testResolveRemoved(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "d")
	e.files(t, "d/f")

	h := e.compose(t, "d/f")
	require.NoError(t, e.fx.Remove("d/f"))

	_, err := e.resolver.Decompose(h)
	AssertErrorCode(t, filehandle.ErrNotFound, err)
}

func (suite *CodecTestSuite) testResolveSentinel(t *testing.T) {
	e := suite.newEnv(t, 0)

	h, err := filehandle.New(0, 0, 0, []byte{0x01})
	require.NoError(t, err)

	_, err = e.resolver.Decompose(h)
	AssertErrorCode(t, filehandle.ErrInvalidHandle, err)
}

func (suite *CodecTestSuite) testResolveFillsStatCache(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "d")
	e.files(t, "d/f")

	h := e.compose(t, "d/f")
	e.stats.Invalidate()

	_, err := e.resolver.Decompose(h)
	require.NoError(t, err)

	st, valid := e.stats.Get()
	require.True(t, valid)
	dev, ino := st.Identity()
	assert.Equal(t, h.Device(), dev)
	assert.Equal(t, h.Inode(), ino)
}
