package redis

import (
	"context"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/agrovia/riskengine/internal/domain/service"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
)

// CatalogVersionStore keeps the catalog version counter in Redis so every
// engine instance invalidates its catalog cache on the same stamp.
type CatalogVersionStore struct {
	client *redis.Client
}

// NewCatalogVersionStore creates the Redis-backed version store.
func NewCatalogVersionStore(client *redis.Client) service.CatalogVersionStore {
	return &CatalogVersionStore{client: client}
}

// Bump atomically increments the version.
func (s *CatalogVersionStore) Bump(ctx context.Context) (int64, error) {
	version, err := s.client.Incr(ctx, constants.CatalogVersionKey).Result()
	if err != nil {
		return 0, errors.ErrUnavailable("bumping catalog version", err)
	}
	return version, nil
}

// Current reads the version; a missing key means the catalog was never
// written and reports version zero.
func (s *CatalogVersionStore) Current(ctx context.Context) (int64, error) {
	version, err := s.client.Get(ctx, constants.CatalogVersionKey).Int64()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, errors.ErrUnavailable("reading catalog version", err)
	}
	return version, nil
}
