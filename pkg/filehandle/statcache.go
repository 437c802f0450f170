package filehandle

import "sync"

// StatCache holds the most recent stat taken by a successful compose,
// extension, resolution or cache confirmation.
//
// It lets an attribute fetch that immediately follows a successful
// resolution skip a second stat. The snapshot is only meaningful right
// after such a success; any failed operation clears it.
type StatCache struct {
	mu    sync.Mutex
	st    Stat
	valid bool
}

// NewStatCache returns an empty (invalid) stat cache.
func NewStatCache() *StatCache {
	return &StatCache{}
}

// Set stores st and marks the slot valid.
func (c *StatCache) Set(st Stat) {
	c.mu.Lock()
	c.st = st
	c.valid = true
	c.mu.Unlock()
}

// Invalidate clears the validity flag.
func (c *StatCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// Get returns the cached snapshot and whether it is valid.
func (c *StatCache) Get() (Stat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st, c.valid
}
