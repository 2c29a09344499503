// Package strategy implements the pluggable scoring models risk definitions
// bind to. Strategies are pure: the same snapshot and config always produce
// the same score, and out-of-domain inputs yield ErrNotEvaluable rather than
// a failure.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/agrovia/riskengine/internal/domain/models"
	"github.com/agrovia/riskengine/pkg/constants"
)

// ErrNotEvaluable signals that a strategy could not produce a score for this
// snapshot: a required input is missing or outside its physical domain. It is
// a skip, not a failure; callers log it as "insufficient data" and move on.
var ErrNotEvaluable = errors.New("not evaluable: required input missing or out of domain")

// Strategy scores one entity snapshot against a definition's model config.
// The returned probability score lies on the 0-100 scale.
type Strategy interface {
	Evaluate(ctx context.Context, snapshot *models.EvaluationSnapshot, cfg models.ModelConfig) (float64, error)
}

// Registry is the dispatch table from model type to strategy. Adding a model
// type means registering a new variant, never modifying existing ones.
type Registry struct {
	mu         sync.RWMutex
	strategies map[constants.ModelType]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[constants.ModelType]Strategy)}
}

// NewDefaultRegistry creates a registry with all built-in strategies bound.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(constants.ModelTypeSimple, NewSimpleStrategy())
	r.Register(constants.ModelTypeRegression, NewRegressionStrategy())
	r.Register(constants.ModelTypeClassification, NewClassificationStrategy())
	r.Register(constants.ModelTypeML, NewMLStrategy())
	return r
}

// Register binds a strategy to a model type, replacing any previous binding.
func (r *Registry) Register(modelType constants.ModelType, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[modelType] = s
}

// Get returns the strategy for a model type.
func (r *Registry) Get(modelType constants.ModelType) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[modelType]
	return s, ok
}

// Has reports whether a strategy is registered for the model type. The
// catalog uses this at registration time so definitions referencing an
// unregistered model type never reach evaluation.
func (r *Registry) Has(modelType constants.ModelType) bool {
	_, ok := r.Get(modelType)
	return ok
}

// ModelTypes returns the registered model types, sorted for stable output.
func (r *Registry) ModelTypes() []constants.ModelType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]constants.ModelType, 0, len(r.strategies))
	for t := range r.strategies {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// clampScore bounds a raw score to the 0-100 scale.
func clampScore(score float64) float64 {
	if score < constants.ScoreMin {
		return constants.ScoreMin
	}
	if score > constants.ScoreMax {
		return constants.ScoreMax
	}
	return score
}

// notEvaluable wraps ErrNotEvaluable with the reason for the skip log.
func notEvaluable(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotEvaluable, fmt.Sprintf(format, args...))
}

// IsNotEvaluable reports whether the error marks a skipped evaluation rather
// than a failure.
func IsNotEvaluable(err error) bool {
	return errors.Is(err, ErrNotEvaluable)
}
