package cache

import (
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
)

// ProfileCache keeps rendered analysis responses keyed by a hash of the
// request that produced them. It is safe for concurrent use.
type ProfileCache struct {
	entries *lru.Cache
}

// New returns a cache holding up to size responses. A size of zero or less
// disables caching.
func New(size int) (*ProfileCache, error) {
	if size <= 0 {
		return &ProfileCache{}, nil
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ProfileCache{entries: c}, nil
}

// Key hashes a request body.
func Key(body []byte) uint64 {
	return xxhash.Sum64(body)
}

func (c *ProfileCache) Get(key uint64) ([]byte, bool) {
	if c.entries == nil {
		return nil, false
	}
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (c *ProfileCache) Add(key uint64, response []byte) {
	if c.entries == nil {
		return
	}
	c.entries.Add(key, response)
}

func (c *ProfileCache) Len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}
