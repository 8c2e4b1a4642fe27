package templates

import (
	"context"
	"fmt"
	"image"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ironsheep/calligraphy-grader/internal/features"
	"github.com/ironsheep/calligraphy-grader/internal/imaging"
)

// Entry is a template with its measured features.
type Entry struct {
	// Mask is nil when the entry was restored from a FeatureStore.
	Mask     *imaging.Mask
	Features *features.FeatureSet
}

type cacheKey struct {
	char string
	size image.Point
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s@%dx%d", k.char, k.size.X, k.size.Y)
}

// LoadFunc produces the entry for a key on a cache miss. A nil entry means
// there is no template; it is returned to the caller but not stored.
type LoadFunc func(ctx context.Context) (*Entry, error)

// Cache memoizes template entries by character and size.
//
// Entries are never evicted. Concurrent misses on the same key share a
// single call to the loader.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*Entry
	group   singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Entry)}
}

// Get returns a cached entry without loading.
func (c *Cache) Get(char string, size image.Point) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cacheKey{char, size}]
	return e, ok
}

// GetOrLoad returns the cached entry for (char, size), calling load on a
// miss. The returned entry is nil when load reports no template.
func (c *Cache) GetOrLoad(ctx context.Context, char string, size image.Point, load LoadFunc) (*Entry, error) {
	key := cacheKey{char, size}
	if e, ok := c.Get(char, size); ok {
		return e, nil
	}

	// The shared load outlives any one caller; each caller still stops
	// waiting when its own context ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		if e, ok := c.Get(char, size); ok {
			return e, nil
		}
		e, err := load(loadCtx)
		if err != nil || e == nil {
			return e, err
		}
		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()
		return e, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
