package cachesvc

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/trezcool/lophoc/core"
)

// GoCache is an in-process core.Cache with per-key expiration.
type GoCache struct {
	cache *cache.Cache
}

var _ core.Cache = (*GoCache)(nil)

func NewGoCache(conf *core.Config) *GoCache {
	return &GoCache{
		cache: cache.New(conf.Cache.DefaultExpiration, conf.Cache.CleanupInterval),
	}
}

func (c *GoCache) Get(key string) (interface{}, bool) {
	return c.cache.Get(key)
}

// Set stores value under key for d (0 uses the default expiration).
func (c *GoCache) Set(key string, value interface{}, d time.Duration) {
	c.cache.Set(key, value, d)
}

func (c *GoCache) Delete(key string) {
	c.cache.Delete(key)
}

func (c *GoCache) Flush() {
	c.cache.Flush()
}
