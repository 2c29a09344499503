// Package constants defines system-wide constants for the risk evaluation engine.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Severity Constants
// ================================================================================

// Severity represents the classified severity tier of a risk evaluation.
type Severity string

const (
	// SeverityNone indicates the score did not reach the lowest threshold
	SeverityNone Severity = "none"

	// SeverityLow indicates an advisory-level risk
	SeverityLow Severity = "low"

	// SeverityMedium indicates a risk requiring attention
	SeverityMedium Severity = "medium"

	// SeverityHigh indicates a risk requiring action
	SeverityHigh Severity = "high"

	// SeverityCritical indicates an immediate-action risk
	SeverityCritical Severity = "critical"
)

// severityRanks orders the tiers for threshold comparisons. Higher rank
// means more severe.
var severityRanks = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordinal rank of a severity tier, or -1 for an unknown tier.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return -1
}

// IsValid reports whether the severity is one of the defined tiers.
func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// AtLeast reports whether s ranks equal to or above other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// ================================================================================
// Evaluation Mode Constants
// ================================================================================

// EvaluationMode selects which trigger path(s) apply to a risk definition.
type EvaluationMode string

const (
	// EvaluationModeBatch evaluates on the scheduled sweep only
	EvaluationModeBatch EvaluationMode = "batch"

	// EvaluationModeRealtime evaluates on qualifying data arrival only
	EvaluationModeRealtime EvaluationMode = "realtime"

	// EvaluationModeHybrid evaluates on both paths
	EvaluationModeHybrid EvaluationMode = "hybrid"
)

// IsValid reports whether the evaluation mode is a defined mode.
func (m EvaluationMode) IsValid() bool {
	switch m {
	case EvaluationModeBatch, EvaluationModeRealtime, EvaluationModeHybrid:
		return true
	}
	return false
}

// IncludesBatch reports whether the mode participates in the batch sweep.
func (m EvaluationMode) IncludesBatch() bool {
	return m == EvaluationModeBatch || m == EvaluationModeHybrid
}

// IncludesRealtime reports whether the mode participates in the realtime path.
func (m EvaluationMode) IncludesRealtime() bool {
	return m == EvaluationModeRealtime || m == EvaluationModeHybrid
}

// ================================================================================
// Model Type Constants
// ================================================================================

// ModelType identifies the scoring strategy a risk definition binds to.
type ModelType string

const (
	// ModelTypeSimple is a deterministic formula over sub-metrics
	ModelTypeSimple ModelType = "simple"

	// ModelTypeRegression is a linear-regression scoring model
	ModelTypeRegression ModelType = "regression"

	// ModelTypeClassification is a rule-band classification model
	ModelTypeClassification ModelType = "classification"

	// ModelTypeML is reserved for an external inference backend
	ModelTypeML ModelType = "ml"
)

// ================================================================================
// Risk Domain Constants
// ================================================================================

// RiskDomain groups risk definitions by operational area.
type RiskDomain string

const (
	RiskDomainAgronomic RiskDomain = "agronomic"
	RiskDomainRobotic   RiskDomain = "robotic"
	RiskDomainEnergy    RiskDomain = "energy"
	RiskDomainLivestock RiskDomain = "livestock"
	RiskDomainOther     RiskDomain = "other"
)

// IsValid reports whether the domain is a defined domain.
func (d RiskDomain) IsValid() bool {
	switch d {
	case RiskDomainAgronomic, RiskDomainRobotic, RiskDomainEnergy, RiskDomainLivestock, RiskDomainOther:
		return true
	}
	return false
}

// ================================================================================
// Data Source Constants
// ================================================================================

// DataSource names a required evaluation input resolved at evaluation time.
type DataSource string

const (
	DataSourceWeather         DataSource = "weather"
	DataSourceTelemetry       DataSource = "telemetry"
	DataSourceGDD             DataSource = "gdd"
	DataSourceVegetationIndex DataSource = "vegetation-index"
	DataSourceSoilMoisture    DataSource = "soil-moisture"
)

// IsValid reports whether the source is a known evaluation input.
func (s DataSource) IsValid() bool {
	switch s {
	case DataSourceWeather, DataSourceTelemetry, DataSourceGDD, DataSourceVegetationIndex, DataSourceSoilMoisture:
		return true
	}
	return false
}

// ================================================================================
// Tenant Constants
// ================================================================================

// TenantStatus represents the lifecycle status of a tenant.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusDeleted   TenantStatus = "deleted"
)

// ================================================================================
// Notification Constants
// ================================================================================

const (
	// EventTypeRiskEvaluation is the webhook event type for risk evaluations
	EventTypeRiskEvaluation = "risk_evaluation"

	// WebhookSignatureHeader carries the hex HMAC-SHA256 of the payload body
	WebhookSignatureHeader = "X-Risk-Signature"

	// WebhookEventIDHeader carries the event identity for receiver-side dedup
	WebhookEventIDHeader = "X-Risk-Event-ID"

	// TenantIDHeader carries the caller's tenant scope on API requests
	TenantIDHeader = "X-Tenant-ID"

	// RequestIDHeader carries the request correlation ID
	RequestIDHeader = "X-Request-ID"

	// DiagnosticHeader flags a platform-diagnostic read on internal routes
	DiagnosticHeader = "X-Platform-Diagnostic"

	// WebhookDeliveryTimeout bounds a single delivery attempt
	WebhookDeliveryTimeout = 10 * time.Second

	// WebhookMaxAttempts is the delivery attempt limit before a terminal failure
	WebhookMaxAttempts = 5

	// WebhookInitialBackoff is the first retry delay; doubles per attempt
	WebhookInitialBackoff = 2 * time.Second
)

// ================================================================================
// Evaluation Constants
// ================================================================================

const (
	// DefaultSweepWorkers is the bounded worker pool size for the batch sweep
	DefaultSweepWorkers = 8

	// DefaultRealtimeSlots bounds the realtime evaluations running in the
	// background at once; ingest requests beyond it are rejected
	DefaultRealtimeSlots = 32

	// StrategyTimeout bounds a single strategy invocation
	StrategyTimeout = 5 * time.Second

	// DefaultSnapshotFreshness is how old a data source may be before the
	// entity is skipped as insufficient data
	DefaultSnapshotFreshness = 2 * time.Hour

	// ScoreMin and ScoreMax bound the probability score scale
	ScoreMin = 0.0
	ScoreMax = 100.0
)

// ================================================================================
// Cache Constants
// ================================================================================

const (
	// CatalogCacheTTL is the L1 cache lifetime for catalog entries; entries are
	// also invalidated early when the catalog version stamp moves
	CatalogCacheTTL = 5 * time.Minute

	// CatalogVersionKey is the Redis key carrying the catalog version stamp
	CatalogVersionKey = "risk:catalog:version"

	// LatestSeverityCacheTTL is the cache lifetime for latest-severity lookups
	LatestSeverityCacheTTL = 10 * time.Minute
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is the type for request-scoped context values.
type ContextKey string

const (
	// ContextKeyRequestID carries the request correlation ID
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTenantID carries the authenticated tenant scope
	ContextKeyTenantID ContextKey = "tenant_id"

	// ContextKeyDiagnostic marks an explicit platform-diagnostic context;
	// reads under it may cross tenant boundaries and are audited
	ContextKeyDiagnostic ContextKey = "platform_diagnostic"
)

// ================================================================================
// Error Codes
// ================================================================================

// ErrorCode is the machine-readable code attached to structured errors.
type ErrorCode string

const (
	ErrCodeInvalidRequest    ErrorCode = "invalid_request"
	ErrCodeDuplicateCode     ErrorCode = "duplicate_code"
	ErrCodeInvalidThresholds ErrorCode = "invalid_thresholds"
	ErrCodeUnknownModelType  ErrorCode = "unknown_model_type"
	ErrCodeNotFound          ErrorCode = "not_found"
	ErrCodeTenantMismatch    ErrorCode = "tenant_mismatch"
	ErrCodeInternal          ErrorCode = "internal_error"
	ErrCodeUnavailable       ErrorCode = "service_unavailable"
)
