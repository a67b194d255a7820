package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/cognicore/flowtag/pkg/flowtag/match"
)

// LRU is an in-process cache with optional expiry.
type LRU struct {
	entries *expirable.LRU[string, []match.Tag]
}

// NewLRU creates an LRU holding up to size results. size <= 0 selects
// DefaultSize; ttl <= 0 disables expiry.
func NewLRU(size int, ttl time.Duration) (*LRU, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl < 0 {
		ttl = 0
	}
	return &LRU{entries: expirable.NewLRU[string, []match.Tag](size, nil, ttl)}, nil
}

func (c *LRU) Get(_ context.Context, key string) ([]match.Tag, bool, error) {
	tags, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]match.Tag(nil), tags...), true, nil
}

func (c *LRU) Set(_ context.Context, key string, tags []match.Tag) error {
	c.entries.Add(key, append([]match.Tag{}, tags...))
	return nil
}

// Len returns the number of cached results.
func (c *LRU) Len() int { return c.entries.Len() }

func (c *LRU) Close() error {
	c.entries.Purge()
	return nil
}
