// Package pathcache maps (device, inode) pairs to their last known path.
//
// The cache is a fixed-size table with exact least-recently-used
// replacement driven by a logical clock. Entries are hints: every hit is
// re-validated against the live filesystem before it is returned, so a
// stale entry can cost a miss but never a wrong answer.
package pathcache

import (
	"sort"
	"sync"

	"github.com/marmos91/nfsfh/internal/logger"
	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/marmos91/nfsfh/pkg/metrics"
)

// DefaultCapacity is the number of slots used when none is configured.
const DefaultCapacity = 4096

// Entry is one cached (device, inode) -> path mapping.
type Entry struct {
	Device uint32
	Inode  uint32
	Path   string

	// Use is the logical time of the last add or hit; 0 marks a free or
	// invalidated slot.
	Use uint64
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Capacity      int
	Entries       int
	HighWater     int
	Lookups       uint64
	Hits          uint64
	Evictions     uint64
	Invalidations uint64
}

// PathCache is safe for concurrent use. One mutex covers every
// lookup-then-update and add-with-eviction sequence.
type PathCache struct {
	mu       sync.Mutex
	fs       filehandle.FS
	stats    *filehandle.StatCache
	metrics  metrics.HandleMetrics
	capacity int

	// slots grows until it reaches capacity; len(slots) is the high-water
	// mark.
	slots []Entry
	clock uint64

	lookups       uint64
	hits          uint64
	evictions     uint64
	invalidations uint64
}

// New creates a cache with the given number of slots (DefaultCapacity if
// capacity <= 0). Hits are confirmed with fsys and refresh stats. m may be
// nil.
func New(capacity int, fsys filehandle.FS, stats *filehandle.StatCache, m metrics.HandleMetrics) *PathCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if stats == nil {
		stats = filehandle.NewStatCache()
	}

	return &PathCache{
		fs:       fsys,
		stats:    stats,
		metrics:  metrics.OrNoop(m),
		capacity: capacity,
		slots:    make([]Entry, 0, capacity),
	}
}

// Add records path for (dev, ino).
//
// An existing entry for the same key is overwritten in place. Otherwise
// the next never-used slot is taken while the table is filling; once it
// is full the slot with the oldest use time is replaced (the first such
// slot on ties). The zero key is never cached.
func (c *PathCache) Add(dev, ino uint32, path string) {
	if dev == 0 && ino == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock++

	if i := c.find(dev, ino); i >= 0 {
		c.slots[i].Path = path
		c.slots[i].Use = c.clock
		return
	}

	if len(c.slots) < c.capacity {
		c.slots = append(c.slots, Entry{Device: dev, Inode: ino, Path: path, Use: c.clock})
		c.metrics.SetCacheEntries(c.occupied())
		return
	}

	victim := 0
	for i := 1; i < len(c.slots); i++ {
		if c.slots[i].Use < c.slots[victim].Use {
			victim = i
		}
	}
	if c.slots[victim].Use != 0 {
		c.evictions++
		c.metrics.RecordCacheEviction()
		logger.Debug("Path cache evicted %s", c.slots[victim].Path)
	}
	c.slots[victim] = Entry{Device: dev, Inode: ino, Path: path, Use: c.clock}
	c.metrics.SetCacheEntries(c.occupied())
}

// Lookup returns the cached path for (dev, ino) if it still names that
// object.
//
// The cached path is lstat'd; if that fails or reports a different
// identity the entry is invalidated and the lookup misses. On a hit the
// entry's use time and the stat cache are refreshed.
func (c *PathCache) Lookup(dev, ino uint32) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++

	i := c.find(dev, ino)
	if i < 0 {
		c.metrics.RecordCacheLookup(false)
		return "", false
	}

	path := c.slots[i].Path
	st, err := c.fs.Lstat(path)
	if err == nil {
		sdev, sino := st.Identity()
		if sdev == dev && sino == ino {
			c.clock++
			c.slots[i].Use = c.clock
			c.hits++
			c.stats.Set(st)
			c.metrics.RecordCacheLookup(true)
			return path, true
		}
	}

	c.slots[i].Use = 0
	c.invalidations++
	c.metrics.RecordCacheInvalidation()
	c.metrics.RecordCacheLookup(false)
	c.metrics.SetCacheEntries(c.occupied())
	logger.Debug("Path cache entry %s no longer names dev=%d ino=%d", path, dev, ino)
	return "", false
}

// Stats returns the current counters.
func (c *PathCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Capacity:      c.capacity,
		Entries:       c.occupied(),
		HighWater:     len(c.slots),
		Lookups:       c.lookups,
		Hits:          c.hits,
		Evictions:     c.evictions,
		Invalidations: c.invalidations,
	}
}

// Len returns the number of valid entries.
func (c *PathCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.occupied()
}

// Snapshot returns the valid entries, least recently used first. Replaying
// them through Add on an empty cache reproduces the same LRU order.
func (c *PathCache) Snapshot() []Entry {
	c.mu.Lock()
	out := make([]Entry, 0, len(c.slots))
	for _, e := range c.slots {
		if e.Use != 0 {
			out = append(out, e)
		}
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Use < out[j].Use })
	return out
}

// find returns the slot holding a valid entry for (dev, ino), or -1.
// Only slots handed out so far are scanned.
func (c *PathCache) find(dev, ino uint32) int {
	for i := range c.slots {
		e := &c.slots[i]
		if e.Use != 0 && e.Device == dev && e.Inode == ino {
			return i
		}
	}
	return -1
}

func (c *PathCache) occupied() int {
	n := 0
	for i := range c.slots {
		if c.slots[i].Use != 0 {
			n++
		}
	}
	return n
}
