package texture

import "sync"

// Loader loads a texture from a resolved file path.
type Loader interface {
	Load(path string) (*Texture, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) (*Texture, error)

func (f LoaderFunc) Load(path string) (*Texture, error) { return f(path) }

// Cache is a concurrency-safe texture cache keyed by file path. Several
// materials referencing one atlas share a single decoded copy.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	load  func(string) (*Texture, error)
}

type cacheEntry struct {
	tex *Texture
	err error
}

// NewCache creates a cache that decodes with Load.
func NewCache() *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		load:  Load,
	}
}

// Load returns the cached texture for path, decoding it on first use.
// Decode failures are cached too.
func (c *Cache) Load(path string) (*Texture, error) {
	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.tex, entry.err
	}
	c.mu.RUnlock()

	tex, err := c.load(path)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[path]; exists {
		return entry.tex, entry.err
	}
	c.items[path] = &cacheEntry{tex: tex, err: err}
	return tex, err
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
