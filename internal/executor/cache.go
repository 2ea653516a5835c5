package executor

import (
	"sync"

	"github.com/golang/groupcache/lru"

	language "github.com/hanpama/graphbind/internal/language"
)

// documentCache keeps parsed query documents keyed by query text. Documents
// are never mutated after parsing, so they are shared between requests.
type documentCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func newDocumentCache(size int) *documentCache {
	return &documentCache{cache: lru.New(size)}
}

func (c *documentCache) get(query string) (*language.QueryDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(query)
	if !ok {
		return nil, false
	}
	return v.(*language.QueryDocument), true
}

func (c *documentCache) add(query string, doc *language.QueryDocument) {
	c.mu.Lock()
	c.cache.Add(query, doc)
	c.mu.Unlock()
}

func (c *documentCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
