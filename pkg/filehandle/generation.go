package filehandle

import (
	"fmt"
	"strings"
)

// GenerationMode selects how generation numbers are obtained. The mode is
// chosen once at startup; it never changes for the life of a Codec.
type GenerationMode string

const (
	// GenerationAuto picks the platform default: native on darwin,
	// query on linux, inode elsewhere.
	GenerationAuto GenerationMode = "auto"

	// GenerationNative reads the generation field of struct stat.
	GenerationNative GenerationMode = "native"

	// GenerationQuery asks the filesystem (FS_IOC_GETVERSION) for regular
	// files and directories.
	GenerationQuery GenerationMode = "query"

	// GenerationInode returns the inode number itself.
	//
	// This is a degraded guarantee: generation always equals inode, so a
	// recycled inode number is indistinguishable from the original object.
	GenerationInode GenerationMode = "inode"
)

// ParseGenerationMode parses a configuration string (case-insensitive).
// The empty string means GenerationAuto.
func ParseGenerationMode(s string) (GenerationMode, error) {
	switch m := GenerationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return GenerationAuto, nil
	case GenerationAuto, GenerationNative, GenerationQuery, GenerationInode:
		return m, nil
	default:
		return "", fmt.Errorf("unknown generation mode %q (want auto, native, query or inode)", s)
	}
}

// PlatformGenerationMode returns the mode GenerationAuto resolves to on
// this platform.
func PlatformGenerationMode() GenerationMode {
	return platformGenerationMode
}

// GenerationResolver obtains a best-effort generation number for an object
// that has already been stat'd. It is only used to fill the generation
// field of new handles: resolution and caching match on (device, inode)
// alone.
//
// Implementations return 0 on any failure.
type GenerationResolver interface {
	// Generation returns the generation number for the object described
	// by st. f is an already-open descriptor for the object, or nil; path
	// is used to open the object when a descriptor is needed and f is nil.
	Generation(st Stat, f File, path string) uint32

	// Mode reports the strategy in use.
	Mode() GenerationMode
}

// NewGenerationResolver returns the strategy for mode. fsys is used by the
// query strategy to open objects.
func NewGenerationResolver(mode GenerationMode, fsys FS) (GenerationResolver, error) {
	if mode == GenerationAuto || mode == "" {
		mode = platformGenerationMode
	}

	switch mode {
	case GenerationNative:
		if !nativeGenerationSupported {
			return nil, newError(ErrNotSupported, "native generation numbers not available on this platform", "", nil)
		}
		return nativeGeneration{}, nil
	case GenerationQuery:
		if fsys == nil {
			return nil, fmt.Errorf("query generation strategy requires a filesystem")
		}
		return NewQueryGeneration(fsys, ioctlGeneration), nil
	case GenerationInode:
		return inodeGeneration{}, nil
	default:
		return nil, fmt.Errorf("unknown generation mode %q", mode)
	}
}

// NewQueryGeneration returns the query strategy with a custom query
// function. query receives an open descriptor and returns the generation.
func NewQueryGeneration(fsys FS, query func(fd uintptr) (uint32, error)) GenerationResolver {
	return &queryGeneration{fs: fsys, query: query}
}

type nativeGeneration struct{}

func (nativeGeneration) Generation(st Stat, _ File, _ string) uint32 {
	if !st.HasGen {
		return 0
	}
	return st.Gen
}

func (nativeGeneration) Mode() GenerationMode { return GenerationNative }

type queryGeneration struct {
	fs    FS
	query func(fd uintptr) (uint32, error)
}

func (g *queryGeneration) Generation(st Stat, f File, path string) uint32 {
	if !st.IsRegular() && !st.IsDir() {
		return 0
	}

	if f != nil {
		gen, err := g.query(f.Fd())
		if err != nil {
			return 0
		}
		return gen
	}

	nf, err := g.fs.Open(path)
	if err != nil {
		return 0
	}
	gen, err := g.query(nf.Fd())
	_ = nf.Close()
	if err != nil {
		return 0
	}
	return gen
}

func (g *queryGeneration) Mode() GenerationMode { return GenerationQuery }

type inodeGeneration struct{}

func (inodeGeneration) Generation(st Stat, _ File, _ string) uint32 {
	return uint32(st.Ino)
}

func (inodeGeneration) Mode() GenerationMode { return GenerationInode }
