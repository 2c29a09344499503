// Package repository declares the persistence interfaces the domain depends
// on. Implementations live under internal/infrastructure/persistence.
package repository

import (
	"context"

	"github.com/agrovia/riskengine/internal/domain/models"
)

//go:generate mockery --name RiskDefinitionRepository --output mocks --outpkg mocks
// RiskDefinitionRepository stores the risk definition registry, keyed by
// unique code.
type RiskDefinitionRepository interface {
	// Create persists a new definition. It returns a duplicate_code error if
	// the code already exists.
	Create(ctx context.Context, def *models.RiskDefinition) error

	// Update replaces the stored definition for its code. It returns a
	// not_found error if the code is unknown.
	Update(ctx context.Context, def *models.RiskDefinition) error

	// FindByCode returns the definition or a not_found error.
	FindByCode(ctx context.Context, code string) (*models.RiskDefinition, error)

	// ListActive returns all active definitions matching the filter, ordered
	// by code so listings are restartable.
	ListActive(ctx context.Context, filter models.DefinitionFilter) ([]*models.RiskDefinition, error)
}
