package farm

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"farmquick/services/quick"
)

const producersKey = "producers"

// ProducerCache memoises FindEggProducers for a short TTL. Errors are not
// cached.
type ProducerCache struct {
	next  quick.AssetQuery
	cache *ttlcache.Cache[string, []quick.AssetOption]
}

// NewProducerCache wraps next. A ttl of zero or less disables caching.
func NewProducerCache(next quick.AssetQuery, ttl time.Duration) (*ProducerCache, error) {
	if next == nil {
		return nil, errors.New("asset query is required")
	}
	c := &ProducerCache{next: next}
	if ttl > 0 {
		c.cache = ttlcache.New[string, []quick.AssetOption](
			ttlcache.WithTTL[string, []quick.AssetOption](ttl),
			ttlcache.WithDisableTouchOnHit[string, []quick.AssetOption](),
		)
	}
	return c, nil
}

// FindEggProducers serves from the cache, loading from the wrapped query on
// a miss.
func (c *ProducerCache) FindEggProducers(ctx context.Context) ([]quick.AssetOption, error) {
	if c.cache == nil {
		return c.next.FindEggProducers(ctx)
	}

	var loadErr error
	loader := ttlcache.LoaderFunc[string, []quick.AssetOption](
		func(cache *ttlcache.Cache[string, []quick.AssetOption], key string) *ttlcache.Item[string, []quick.AssetOption] {
			producers, err := c.next.FindEggProducers(ctx)
			if err != nil {
				loadErr = err
				return nil
			}
			return cache.Set(key, producers, ttlcache.DefaultTTL)
		},
	)

	item := c.cache.Get(producersKey, ttlcache.WithLoader(loader))
	if loadErr != nil {
		return nil, loadErr
	}
	if item == nil {
		return nil, errors.New("failed to get egg producers from cache")
	}
	return item.Value(), nil
}

// Invalidate drops the cached list. Call it after asset writes.
func (c *ProducerCache) Invalidate() {
	if c.cache != nil {
		c.cache.DeleteAll()
	}
}
