package testing

import (
	"path/filepath"
	"testing"

	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/stretchr/testify/require"
)

// env bundles a fixture with a codec and resolver sharing one stat cache.
type env struct {
	fx       *Fixture
	stats    *filehandle.StatCache
	codec    *filehandle.Codec
	resolver *filehandle.Resolver
}

func (suite *CodecTestSuite) newEnv(t *testing.T, maxDepth int) *env {
	t.Helper()

	fx := suite.NewFixture(t)
	stats := filehandle.NewStatCache()
	opts := filehandle.Options{
		FS:         fx.FS,
		Root:       fx.Root,
		MaxDepth:   maxDepth,
		Generation: mustInodeGeneration(t, fx.FS),
	}

	codec, err := filehandle.NewCodec(opts, stats)
	require.NoError(t, err)
	resolver, err := filehandle.NewResolver(opts, stats)
	require.NoError(t, err)

	return &env{fx: fx, stats: stats, codec: codec, resolver: resolver}
}

func mustInodeGeneration(t *testing.T, fsys filehandle.FS) filehandle.GenerationResolver {
	t.Helper()
	gen, err := filehandle.NewGenerationResolver(filehandle.GenerationInode, fsys)
	require.NoError(t, err)
	return gen
}

func (e *env) abs(rel string) string {
	if rel == "" {
		return e.fx.Root
	}
	return filepath.Join(e.fx.Root, rel)
}

func (e *env) mkdirs(t *testing.T, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		require.NoError(t, e.fx.Mkdir(rel), "mkdir %s", rel)
	}
}

func (e *env) files(t *testing.T, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		require.NoError(t, e.fx.WriteFile(rel), "write %s", rel)
	}
}

func (e *env) compose(t *testing.T, rel string) filehandle.FileHandle {
	t.Helper()
	h, err := e.codec.Compose(e.abs(rel), false)
	require.NoError(t, err, "compose %s", rel)
	return h
}

// AssertErrorCode fails the test unless err carries the expected code.
func AssertErrorCode(t *testing.T, want filehandle.ErrorCode, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, filehandle.CodeOf(err), "unexpected error: %v", err)
}
