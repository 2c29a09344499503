// Package catalog provides a read-through cache in front of the risk
// catalog for the evaluation hot path.
package catalog

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/agrovia/riskengine/internal/application/service"
	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/logger"
)

// CachedCatalog decorates a CatalogReader with an in-memory cache. Entries
// are keyed by filter and stamped with the shared catalog version: a bumped
// version makes every stale entry miss, so instances converge without
// coordination. Singleflight collapses concurrent misses for one key.
type CachedCatalog struct {
	inner service.CatalogReader
	cache *gocache.Cache
	sf    singleflight.Group
	log   logger.Logger
}

type cachedListing struct {
	version int64
	defs    []*models.RiskDefinition
}

// NewCachedCatalog wraps the given reader with a TTL cache.
func NewCachedCatalog(inner service.CatalogReader, log logger.Logger) *CachedCatalog {
	return &CachedCatalog{
		inner: inner,
		cache: gocache.New(constants.CatalogCacheTTL, 2*constants.CatalogCacheTTL),
		log:   log.WithComponent("catalog-cache"),
	}
}

// ListActive serves cached listings while the catalog version is unchanged.
func (c *CachedCatalog) ListActive(ctx context.Context, filter models.DefinitionFilter) ([]*models.RiskDefinition, error) {
	version, err := c.inner.Version(ctx)
	if err != nil {
		// Version store outage degrades to an uncached read.
		return c.inner.ListActive(ctx, filter)
	}

	key := listingKey(filter)
	if entry, ok := c.cache.Get(key); ok {
		listing := entry.(cachedListing)
		if listing.version == version {
			return listing.defs, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		defs, err := c.inner.ListActive(ctx, filter)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, cachedListing{version: version, defs: defs}, gocache.DefaultExpiration)
		c.log.Debug(ctx, "catalog cache refreshed",
			logger.String("key", key),
			logger.Int64("version", version),
			logger.Int("definitions", len(defs)))
		return defs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.RiskDefinition), nil
}

// Version passes through to the shared version store.
func (c *CachedCatalog) Version(ctx context.Context) (int64, error) {
	return c.inner.Version(ctx)
}

// Flush drops all cached listings; used on local writes so the writing
// instance sees its own change immediately.
func (c *CachedCatalog) Flush() {
	c.cache.Flush()
}

func listingKey(filter models.DefinitionFilter) string {
	return fmt.Sprintf("catalog:%s:%s:%s", filter.Domain, filter.TargetType, filter.Mode)
}
