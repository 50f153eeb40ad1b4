package server

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"qakit/pkg/schema"
)

// SuiteCache keeps recently generated suites so they can be fetched even
// when persistence is off. It is safe for concurrent use.
type SuiteCache struct {
	suites *lru.Cache[string, *schema.Suite]
}

func NewSuiteCache(size int) (*SuiteCache, error) {
	cache, err := lru.New[string, *schema.Suite](size)
	if err != nil {
		return nil, err
	}
	return &SuiteCache{suites: cache}, nil
}

func (c *SuiteCache) Add(s *schema.Suite) {
	c.suites.Add(s.ID, s)
}

func (c *SuiteCache) Get(id string) (*schema.Suite, bool) {
	return c.suites.Get(id)
}

// Remove reports whether id was cached.
func (c *SuiteCache) Remove(id string) bool {
	return c.suites.Remove(id)
}

// List returns cached suites ordered by creation time, then ID.
func (c *SuiteCache) List() []*schema.Suite {
	out := c.suites.Values()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c *SuiteCache) Len() int {
	return c.suites.Len()
}
