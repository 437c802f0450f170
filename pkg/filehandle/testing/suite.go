package testing

import (
	"testing"

	"github.com/marmos91/nfsfh/pkg/filehandle"
)

// Fixture is a fresh, empty directory tree on the filesystem under test.
//
// Paths passed to the mutators are relative to Root.
type Fixture struct {
	// FS is the filesystem the codec and resolver query.
	FS filehandle.FS

	// Root is the absolute export root. It must not traverse symlinks.
	Root string

	Mkdir     func(rel string) error
	WriteFile func(rel string) error
	Remove    func(rel string) error
	Rename    func(oldRel, newRel string) error
}

// CodecTestSuite checks the compose/extend/resolve contract against any
// filehandle.FS. It relies only on distinct objects having distinct inode
// numbers, so it runs against real filesystems as well as memfs.
type CodecTestSuite struct {
	// NewFixture creates a fresh tree for each test.
	NewFixture func(t *testing.T) *Fixture
}

// Run executes all tests in the suite.
func (suite *CodecTestSuite) Run(test *testing.T) {
	test.Run("Compose", suite.RunComposeTests)
	test.Run("Extend", suite.RunExtendTests)
	test.Run("Resolve", suite.RunResolveTests)
}
