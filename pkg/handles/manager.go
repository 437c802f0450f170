// Package handles is the cached filehandle service used by protocol
// handlers.
//
// A Manager ties together the codec, the resolver, the path cache and the
// stat cache. It owns all of that state explicitly; several Managers with
// different roots can coexist in one process.
package handles

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/marmos91/nfsfh/internal/logger"
	"github.com/marmos91/nfsfh/internal/ratelimiter"
	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/marmos91/nfsfh/pkg/hints"
	"github.com/marmos91/nfsfh/pkg/metrics"
	"github.com/marmos91/nfsfh/pkg/pathcache"
)

// MaxNameLen is the longest directory entry name accepted by Lookup.
const MaxNameLen = 255

// Config configures a Manager. Zero values select defaults.
type Config struct {
	// FS is the filesystem to serve. Defaults to the host filesystem.
	FS filehandle.FS

	// Root is the export root. Defaults to "/".
	Root string

	// MaxDepth limits the depth of composed and extended handles.
	// Defaults to filehandle.MaxDepth.
	MaxDepth int

	// Generation selects the generation number strategy.
	// Defaults to filehandle.GenerationAuto.
	Generation filehandle.GenerationMode

	// CacheCapacity is the number of path cache slots.
	// Defaults to pathcache.DefaultCapacity.
	CacheCapacity int

	// SearchRateLimit bounds uncached searches per second; 0 disables
	// throttling. SearchBurst is the token bucket size.
	SearchRateLimit uint
	SearchBurst     uint

	// Metrics receives operation metrics. May be nil.
	Metrics metrics.HandleMetrics

	// Hints warm-starts the path cache and receives its contents on
	// Close. May be nil. The Manager takes ownership and closes it.
	Hints hints.Store
}

// Stats reports cache and search counters.
type Stats struct {
	Cache     pathcache.Stats
	Searches  uint64
	Throttled uint64
}

// PostOp is an optional handle, as carried in NFSv3 post_op_fh3.
type PostOp struct {
	Follows bool
	Handle  filehandle.FileHandle
}

// Manager is safe for concurrent use.
type Manager struct {
	fs       filehandle.FS
	codec    *filehandle.Codec
	resolver *filehandle.Resolver
	stats    *filehandle.StatCache
	cache    *pathcache.PathCache
	limiter  *ratelimiter.RateLimiter
	metrics  metrics.HandleMetrics
	hints    hints.Store

	searches  atomic.Uint64
	throttled atomic.Uint64
}

// New builds a Manager and, if a hint store is configured, warm-starts the
// path cache from it. A failure to load hints is logged, not returned.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	fsys := cfg.FS
	if fsys == nil {
		fsys = filehandle.DefaultFS()
		if fsys == nil {
			return nil, fmt.Errorf("no host filesystem support on this platform: FS must be set")
		}
	}

	gen, err := filehandle.NewGenerationResolver(cfg.Generation, fsys)
	if err != nil {
		return nil, fmt.Errorf("generation strategy: %w", err)
	}

	opts := filehandle.Options{
		FS:         fsys,
		Root:       cfg.Root,
		MaxDepth:   cfg.MaxDepth,
		Generation: gen,
	}
	stats := filehandle.NewStatCache()

	codec, err := filehandle.NewCodec(opts, stats)
	if err != nil {
		return nil, err
	}
	resolver, err := filehandle.NewResolver(opts, stats)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		fs:       fsys,
		codec:    codec,
		resolver: resolver,
		stats:    stats,
		cache:    pathcache.New(cfg.CacheCapacity, fsys, stats, cfg.Metrics),
		metrics:  metrics.OrNoop(cfg.Metrics),
		hints:    cfg.Hints,
	}
	if cfg.SearchRateLimit > 0 {
		m.limiter = ratelimiter.New(cfg.SearchRateLimit, cfg.SearchBurst)
	}

	if m.hints != nil {
		m.loadHints(ctx)
	}

	logger.Info("Handle manager ready: root=%s max_depth=%d generation=%s cache=%d",
		codec.Root(), codec.MaxDepth(), codec.GenerationMode(), m.cache.Stats().Capacity)

	return m, nil
}

// Root returns the export root.
func (m *Manager) Root() string { return m.codec.Root() }

// GenerationMode returns the generation strategy in use.
func (m *Manager) GenerationMode() filehandle.GenerationMode { return m.codec.GenerationMode() }

// Compose builds the handle for path and records it in the path cache.
func (m *Manager) Compose(path string, requireDir bool) (filehandle.FileHandle, error) {
	h, err := m.codec.Compose(path, requireDir)
	m.metrics.RecordCompose("compose", err)
	if err != nil {
		return filehandle.Invalid, err
	}

	m.cache.Add(h.Device(), h.Inode(), filepath.Clean(path))
	return h, nil
}

// Decompose resolves a wire handle to a path.
//
// The encoding is validated first; a malformed handle fails with
// ErrInvalidHandle without touching the filesystem.
func (m *Manager) Decompose(raw []byte) (string, error) {
	if !filehandle.ValidateEncoding(raw) {
		m.stats.Invalidate()
		m.metrics.RecordInvalidHandle()
		logger.Debug("Rejected malformed handle (%d bytes)", len(raw))
		return "", filehandle.NewError(filehandle.ErrInvalidHandle,
			fmt.Sprintf("malformed file handle (%d bytes)", len(raw)), "", nil)
	}

	h, err := filehandle.Decode(raw)
	if err != nil {
		m.stats.Invalidate()
		return "", err
	}
	return m.DecomposeHandle(h)
}

// DecomposeHandle resolves an already-decoded handle.
//
// The path cache is consulted first; a confirmed hit costs one lstat. On a
// miss the tree is searched and a successful result is cached. Failures
// clear the stat cache.
func (m *Manager) DecomposeHandle(h filehandle.FileHandle) (string, error) {
	if !h.IsValid() {
		m.stats.Invalidate()
		m.metrics.RecordInvalidHandle()
		return "", filehandle.NewError(filehandle.ErrInvalidHandle, "sentinel file handle", "", nil)
	}

	if path, ok := m.cache.Lookup(h.Device(), h.Inode()); ok {
		return path, nil
	}

	if h.Depth() > 0 && m.limiter != nil && !m.limiter.Allow() {
		m.stats.Invalidate()
		m.throttled.Add(1)
		m.metrics.RecordThrottled()
		return "", filehandle.NewError(filehandle.ErrThrottled, "search rate limit exceeded for "+h.String(), "", nil)
	}

	start := time.Now()
	path, err := m.resolver.Decompose(h)
	if h.Depth() > 0 {
		m.searches.Add(1)
		m.metrics.RecordSearch(time.Since(start), err == nil)
	}
	if err != nil {
		m.stats.Invalidate()
		logger.Debug("Search failed for %s: %v", h, err)
		return "", err
	}

	m.cache.Add(h.Device(), h.Inode(), path)
	return path, nil
}

// Extend derives the handle of an object inside the directory parent.
func (m *Manager) Extend(parent filehandle.FileHandle, dev, ino, gen uint32) (filehandle.FileHandle, error) {
	h, err := m.codec.Extend(parent, dev, ino, gen)
	m.metrics.RecordCompose("extend", err)
	return h, err
}

// ExtendPost is Extend reporting failure as "no handle follows".
func (m *Manager) ExtendPost(parent filehandle.FileHandle, dev, ino, gen uint32) PostOp {
	h, err := m.Extend(parent, dev, ino, gen)
	if err != nil {
		return PostOp{}
	}
	return PostOp{Follows: true, Handle: h}
}

// ExtendByLookup stats path and extends parent with it if its mode has all
// of requiredTypeBits (e.g. filehandle.ModeDir after MKDIR).
func (m *Manager) ExtendByLookup(parent filehandle.FileHandle, path string, requiredTypeBits uint32) PostOp {
	h, ok := m.codec.ExtendByLookup(parent, path, requiredTypeBits)
	if !ok {
		m.metrics.RecordCompose("extend", errors.New("lookup failed"))
		return PostOp{}
	}
	m.metrics.RecordCompose("extend", nil)
	return PostOp{Follows: true, Handle: h}
}

// Lookup finds name in the directory dir (whose path is dirPath) and
// returns the child's handle and path. The child is recorded in the path
// cache and its attributes in the stat cache.
func (m *Manager) Lookup(dir filehandle.FileHandle, dirPath, name string) (filehandle.FileHandle, string, error) {
	h, path, err := m.lookup(dir, dirPath, name)
	m.metrics.RecordCompose("lookup", err)
	if err != nil {
		m.stats.Invalidate()
		return filehandle.Invalid, "", err
	}
	return h, path, nil
}

func (m *Manager) lookup(dir filehandle.FileHandle, dirPath, name string) (filehandle.FileHandle, string, error) {
	if err := ValidateName(name); err != nil {
		return filehandle.Invalid, "", err
	}

	path := filepath.Join(dirPath, name)
	st, err := m.fs.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return filehandle.Invalid, "", filehandle.NewError(filehandle.ErrNotFound, "no such entry", path, err)
		}
		return filehandle.Invalid, "", filehandle.NewError(filehandle.ErrStatFailure, "cannot stat entry", path, err)
	}

	h, err := m.codec.ExtendStat(dir, st, nil, path)
	if err != nil {
		return filehandle.Invalid, "", err
	}

	m.stats.Set(st)
	m.cache.Add(h.Device(), h.Inode(), path)
	return h, path, nil
}

// Created returns the handle of an object just created at path inside
// dir. f is the open descriptor returned by the create call; it is used
// for the attributes and generation number and is not closed.
func (m *Manager) Created(dir filehandle.FileHandle, path string, f filehandle.File) (filehandle.FileHandle, error) {
	st, err := m.fs.Fstat(f)
	if err != nil {
		m.stats.Invalidate()
		err = filehandle.NewError(filehandle.ErrStatFailure, "cannot stat new object", path, err)
		m.metrics.RecordCompose("create", err)
		return filehandle.Invalid, err
	}

	h, err := m.codec.ExtendStat(dir, st, f, path)
	m.metrics.RecordCompose("create", err)
	if err != nil {
		m.stats.Invalidate()
		return filehandle.Invalid, err
	}

	m.stats.Set(st)
	m.cache.Add(h.Device(), h.Inode(), filepath.Clean(path))
	return h, nil
}

// CachedStat returns the stat snapshot left by the last successful
// operation, if still valid.
func (m *Manager) CachedStat() (filehandle.Stat, bool) {
	return m.stats.Get()
}

// Stats returns cache and search counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Cache:     m.cache.Stats(),
		Searches:  m.searches.Load(),
		Throttled: m.throttled.Load(),
	}
}

// Close saves the path cache to the hint store, if any, and closes it.
func (m *Manager) Close(ctx context.Context) error {
	if m.hints == nil {
		return nil
	}

	saveErr := m.saveHints(ctx)
	if err := m.hints.Close(); err != nil && saveErr == nil {
		return fmt.Errorf("failed to close hint store: %w", err)
	}
	return saveErr
}

func (m *Manager) loadHints(ctx context.Context) {
	list, err := m.hints.Load(ctx)
	if err != nil {
		logger.Warn("Failed to load path hints: %v", err)
		return
	}

	root := m.Root()
	loaded := 0
	for _, h := range list {
		// Saved under a different export root.
		if !filehandle.WithinRoot(root, h.Path) {
			logger.Debug("Dropped path hint %s outside export root %s", h.Path, root)
			continue
		}
		m.cache.Add(h.Device, h.Inode, filepath.Clean(h.Path))
		loaded++
	}
	logger.Info("Loaded %d of %d path hints", loaded, len(list))
}

func (m *Manager) saveHints(ctx context.Context) error {
	entries := m.cache.Snapshot()
	list := make([]hints.Hint, len(entries))
	for i, e := range entries {
		list[i] = hints.Hint{Device: e.Device, Inode: e.Inode, Path: e.Path}
	}

	if err := m.hints.Save(ctx, list); err != nil {
		logger.Error("Failed to save path hints: %v", err)
		return fmt.Errorf("failed to save hints: %w", err)
	}
	logger.Info("Saved %d path hints", len(list))
	return nil
}

// ValidateName checks a single directory entry name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return filehandle.NewError(filehandle.ErrInvalidName, "empty name", "", nil)
	case name == "." || name == "..":
		return filehandle.NewError(filehandle.ErrInvalidName, "name refers to a directory itself or its parent", name, nil)
	case strings.ContainsRune(name, '/'):
		return filehandle.NewError(filehandle.ErrInvalidName, "name contains a slash", name, nil)
	case strings.IndexByte(name, 0) >= 0:
		return filehandle.NewError(filehandle.ErrInvalidName, "name contains a NUL byte", "", nil)
	case len(name) > MaxNameLen:
		return filehandle.NewError(filehandle.ErrNameTooLong,
			fmt.Sprintf("name is %d bytes, maximum is %d", len(name), MaxNameLen), "", nil)
	}
	return nil
}
