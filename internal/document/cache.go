package document

import "sync"

// snapshotCache is a FIFO-evicting bounded cache of parsed documents keyed
// by document path. Freshness is the manager's concern — it revalidates
// entries against file mtimes on every hit.
type snapshotCache struct {
	mu      sync.Mutex
	entries map[string]*Snapshot
	keys    []string
	maxSize int
}

func newSnapshotCache(maxSize int) *snapshotCache {
	return &snapshotCache{
		entries: make(map[string]*Snapshot, maxSize),
		keys:    make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

func (c *snapshotCache) get(key string) (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *snapshotCache) put(key string, snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = snap
		return
	}
	for len(c.keys) >= c.maxSize && len(c.keys) > 0 {
		oldest := c.keys[0]
		c.keys = c.keys[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = snap
	c.keys = append(c.keys, key)
}

func (c *snapshotCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

func (c *snapshotCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Snapshot, c.maxSize)
	c.keys = c.keys[:0]
}
