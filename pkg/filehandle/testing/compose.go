package testing

import (
	"testing"

	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunComposeTests executes all compose tests.
func (suite *CodecTestSuite) RunComposeTests(t *testing.T) {
	t.Run("Root", suite.testComposeRoot)
	t.Run("RecordsComponentHashes", suite.testComposeRecordsComponentHashes)
	t.Run("EncodingIsValid", suite.testComposeEncodingIsValid)
	t.Run("RequireDir", suite.testComposeRequireDir)
	t.Run("Missing", suite.testComposeMissing)
	t.Run("DepthLimit", suite.testComposeDepthLimit)
	t.Run("OutsideRoot", suite.testComposeOutsideRoot)
}

func (suite *CodecTestSuite) testComposeRoot(t *testing.T) {
	e := suite.newEnv(t, 0)

	h, err := e.codec.Compose(e.fx.Root, true)
	require.NoError(t, err)

	st, err := e.fx.FS.Lstat(e.fx.Root)
	require.NoError(t, err)
	dev, ino := st.Identity()

	assert.Equal(t, 0, h.Depth())
	assert.Equal(t, dev, h.Device())
	assert.Equal(t, ino, h.Inode())
	assert.Equal(t, filehandle.HeaderSize, h.Len())
}

func (suite *CodecTestSuite) testComposeRecordsComponentHashes(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "a", "a/b")
	e.files(t, "a/b/f")

	h := e.compose(t, "a/b/f")
	require.Equal(t, 3, h.Depth())

	for i, rel := range []string{"a", "a/b", "a/b/f"} {
		st, err := e.fx.FS.Lstat(e.abs(rel))
		require.NoError(t, err)
		_, ino := st.Identity()
		assert.Equal(t, filehandle.Hash(ino), h.ComponentHash(i), "component %d (%s)", i, rel)
	}

	st, err := e.fx.FS.Lstat(e.abs("a/b/f"))
	require.NoError(t, err)
	dev, ino := st.Identity()
	assert.Equal(t, dev, h.Device())
	assert.Equal(t, ino, h.Inode())
	assert.Equal(t, ino, h.Generation(), "inode strategy reports the inode")
}

func (suite *CodecTestSuite) testComposeEncodingIsValid(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "d")
	e.files(t, "d/f")

	h := e.compose(t, "d/f")
	raw := h.Bytes()

	require.True(t, filehandle.ValidateEncoding(raw))
	assert.Equal(t, byte(2), raw[0])
	assert.Len(t, raw, filehandle.HeaderSize+2)

	decoded, err := filehandle.Decode(raw)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(h))
}

func (suite *CodecTestSuite) testComposeRequireDir(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "d")
	e.files(t, "f")

	_, err := e.codec.Compose(e.abs("d"), true)
	require.NoError(t, err)

	h, err := e.codec.Compose(e.abs("f"), true)
	AssertErrorCode(t, filehandle.ErrNotDirectory, err)
	assert.False(t, h.IsValid())
}

func (suite *CodecTestSuite) testComposeMissing(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.files(t, "f")

	// Prime the stat cache, then check a failure clears it.
	_, err := e.resolver.Decompose(e.compose(t, "f"))
	require.NoError(t, err)
	_, valid := e.stats.Get()
	require.True(t, valid)

	h, err := e.codec.Compose(e.abs("missing"), false)
	AssertErrorCode(t, filehandle.ErrStatFailure, err)
	assert.False(t, h.IsValid())

	_, valid = e.stats.Get()
	assert.False(t, valid)
}

func (suite *CodecTestSuite) testComposeDepthLimit(t *testing.T) {
	e := suite.newEnv(t, 2)
	e.mkdirs(t, "a", "a/b")
	e.files(t, "a/b/f")

	h := e.compose(t, "a/b")
	assert.Equal(t, 2, h.Depth())

	_, err := e.codec.Compose(e.abs("a/b/f"), false)
	AssertErrorCode(t, filehandle.ErrDepthExceeded, err)
}

func (suite *CodecTestSuite) testComposeOutsideRoot(t *testing.T) {
	e := suite.newEnv(t, 0)
	if e.fx.Root == "/" {
		t.Skip("export root is the filesystem root")
	}

	_, err := e.codec.Compose("/", false)
	AssertErrorCode(t, filehandle.ErrInvalidPath, err)

	_, err = e.codec.Compose("relative/path", false)
	AssertErrorCode(t, filehandle.ErrInvalidPath, err)
}
