package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/internal/domain/repository"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/logger"
)

// CachedEvaluationRepository decorates the evaluation store with a short-lived
// Redis cache for latest-severity lookups. Appends write through so the cache
// never serves an evaluation older than the newest in the store; cache faults
// degrade to the underlying repository rather than failing the read.
type CachedEvaluationRepository struct {
	inner  repository.EvaluationRepository
	client *redis.Client
	logger logger.Logger
}

// NewCachedEvaluationRepository wraps the given repository with the
// latest-severity cache.
func NewCachedEvaluationRepository(inner repository.EvaluationRepository, client *redis.Client, log logger.Logger) repository.EvaluationRepository {
	return &CachedEvaluationRepository{
		inner:  inner,
		client: client,
		logger: log.WithComponent("evaluation_cache"),
	}
}

// Append persists the evaluation and refreshes the cached latest entry.
func (r *CachedEvaluationRepository) Append(ctx context.Context, eval *models.RiskEvaluation) error {
	if err := r.inner.Append(ctx, eval); err != nil {
		return err
	}
	payload, err := json.Marshal(eval)
	if err != nil {
		r.logger.Warn(ctx, "latest-severity cache marshal failed", logger.String("risk_code", eval.RiskCode), logger.String("error", err.Error()))
		return nil
	}
	key := latestEvaluationKey(eval.TenantID, eval.EntityID, eval.RiskCode)
	if err := r.client.Set(ctx, key, payload, constants.LatestSeverityCacheTTL).Err(); err != nil {
		r.logger.Warn(ctx, "latest-severity cache write failed", logger.String("key", key), logger.String("error", err.Error()))
	}
	return nil
}

// LatestFor serves from the cache when the entry is fresh and falls back to
// the store on a miss, filling the cache on the way out.
func (r *CachedEvaluationRepository) LatestFor(ctx context.Context, tenantID, entityID, riskCode string) (*models.RiskEvaluation, error) {
	key := latestEvaluationKey(tenantID, entityID, riskCode)
	payload, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var eval models.RiskEvaluation
		if unmarshalErr := json.Unmarshal(payload, &eval); unmarshalErr == nil {
			return &eval, nil
		}
		// Corrupt entry, drop it and fall through to the store.
		r.client.Del(ctx, key)
	} else if !stderrors.Is(err, redis.Nil) {
		r.logger.Warn(ctx, "latest-severity cache read failed", logger.String("key", key), logger.String("error", err.Error()))
	}

	eval, err := r.inner.LatestFor(ctx, tenantID, entityID, riskCode)
	if err != nil {
		return nil, err
	}
	if payload, marshalErr := json.Marshal(eval); marshalErr == nil {
		if setErr := r.client.Set(ctx, key, payload, constants.LatestSeverityCacheTTL).Err(); setErr != nil {
			r.logger.Warn(ctx, "latest-severity cache fill failed", logger.String("key", key), logger.String("error", setErr.Error()))
		}
	}
	return eval, nil
}

// Query is a history read and never touches the cache.
func (r *CachedEvaluationRepository) Query(ctx context.Context, q models.EvaluationQuery) ([]*models.RiskEvaluation, error) {
	return r.inner.Query(ctx, q)
}

func latestEvaluationKey(tenantID, entityID, riskCode string) string {
	return fmt.Sprintf("risk:latest:%s:%s:%s", tenantID, entityID, riskCode)
}
