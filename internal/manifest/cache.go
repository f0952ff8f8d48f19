package manifest

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/roach88/simnet/internal/tx"
)

// DefaultCacheSize bounds the number of compiled manifests kept in memory.
const DefaultCacheSize = 64

// Cache memoizes compiled manifests by the hash of their source bytes.
// Compiled contracts are shared between hits and must not be mutated.
type Cache struct {
	entries *lru.Cache
}

// NewCache creates a cache holding at most size manifests.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("manifest cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Compile returns the cached contract for src or compiles and stores it.
func (c *Cache) Compile(filename string, src []byte) (*Contract, error) {
	key := tx.SourceHash(src)
	if hit, ok := c.entries.Get(key); ok {
		return hit.(*Contract), nil
	}
	compiled, err := Compile(filename, src)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, compiled)
	return compiled, nil
}

// Len returns the number of cached manifests.
func (c *Cache) Len() int {
	return c.entries.Len()
}
