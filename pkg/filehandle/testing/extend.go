package testing

import (
	"testing"

	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunExtendTests executes all extension tests.
func (suite *CodecTestSuite) RunExtendTests(t *testing.T) {
	t.Run("MatchesCompose", suite.testExtendMatchesCompose)
	t.Run("DoesNotAliasParent", suite.testExtendDoesNotAliasParent)
	t.Run("DepthLimit", suite.testExtendDepthLimit)
	t.Run("ByLookup", suite.testExtendByLookup)
	t.Run("ByLookupTypeMismatch", suite.testExtendByLookupTypeMismatch)
	t.Run("ByLookupMissing", suite.testExtendByLookupMissing)
}

func (suite *CodecTestSuite) testExtendMatchesCompose(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "d", "d/sub")
	e.files(t, "d/sub/f")

	parent := e.compose(t, "d/sub")
	st, err := e.fx.FS.Lstat(e.abs("d/sub/f"))
	require.NoError(t, err)

	child, err := e.codec.ExtendStat(parent, st, nil, e.abs("d/sub/f"))
	require.NoError(t, err)

	assert.True(t, child.Equal(e.compose(t, "d/sub/f")))
}

func (suite *CodecTestSuite) testExtendDoesNotAliasParent(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "d")

	parent := e.compose(t, "d")
	before := parent.Bytes()

	a, err := e.codec.Extend(parent, 1, 100, 0)
	require.NoError(t, err)
	b, err := e.codec.Extend(parent, 1, 200, 0)
	require.NoError(t, err)

	assert.Equal(t, before, parent.Bytes())
	assert.Equal(t, filehandle.Hash(100), a.ComponentHash(1))
	assert.Equal(t, filehandle.Hash(200), b.ComponentHash(1))
	assert.Equal(t, parent.ComponentHash(0), a.ComponentHash(0))
}

func (suite *CodecTestSuite) testExtendDepthLimit(t *testing.T) {
	e := suite.newEnv(t, 2)
	e.mkdirs(t, "a", "a/b")

	parent := e.compose(t, "a")
	mid, err := e.codec.Extend(parent, 1, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, mid.Depth())

	h, err := e.codec.Extend(mid, 1, 8, 0)
	AssertErrorCode(t, filehandle.ErrDepthExceeded, err)
	assert.False(t, h.IsValid())
}

func (suite *CodecTestSuite) testExtendByLookup(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "d", "d/new")

	parent := e.compose(t, "d")
	h, ok := e.codec.ExtendByLookup(parent, e.abs("d/new"), filehandle.ModeDir)
	require.True(t, ok)
	assert.True(t, h.Equal(e.compose(t, "d/new")))

	st, valid := e.stats.Get()
	require.True(t, valid)
	_, ino := st.Identity()
	assert.Equal(t, h.Inode(), ino)
}

func (suite *CodecTestSuite) testExtendByLookupTypeMismatch(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "d")
	e.files(t, "d/f")

	parent := e.compose(t, "d")
	h, ok := e.codec.ExtendByLookup(parent, e.abs("d/f"), filehandle.ModeDir)
	assert.False(t, ok)
	assert.False(t, h.IsValid())

	_, valid := e.stats.Get()
	assert.False(t, valid)

	// No required bits: any type is accepted.
	_, ok = e.codec.ExtendByLookup(parent, e.abs("d/f"), 0)
	assert.True(t, ok)
}

func (suite *CodecTestSuite) testExtendByLookupMissing(t *testing.T) {
	e := suite.newEnv(t, 0)
	e.mkdirs(t, "d")

	parent := e.compose(t, "d")
	_, ok := e.codec.ExtendByLookup(parent, e.abs("d/missing"), 0)
	assert.False(t, ok)
}
