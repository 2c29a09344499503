package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/agrovia/riskengine/internal/application/dto"
	"github.com/agrovia/riskengine/pkg/errors"
)

type mockCatalogAppService struct {
	mock.Mock
}

func (m *mockCatalogAppService) Register(ctx context.Context, req *dto.RegisterRiskRequest) (*dto.RiskDefinitionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RiskDefinitionResponse), args.Error(1)
}

func (m *mockCatalogAppService) Update(ctx context.Context, code string, req *dto.RegisterRiskRequest) (*dto.RiskDefinitionResponse, error) {
	args := m.Called(ctx, code, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RiskDefinitionResponse), args.Error(1)
}

func (m *mockCatalogAppService) Lookup(ctx context.Context, code string) (*dto.RiskDefinitionResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RiskDefinitionResponse), args.Error(1)
}

func (m *mockCatalogAppService) ListActive(ctx context.Context, domain, targetType, mode string) ([]*dto.RiskDefinitionResponse, error) {
	args := m.Called(ctx, domain, targetType, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.RiskDefinitionResponse), args.Error(1)
}

func registerBody() *dto.RegisterRiskRequest {
	return &dto.RegisterRiskRequest{
		Code:                "frost_risk_v1",
		Name:                "Frost Risk",
		Domain:              "weather",
		TargetEntityType:    "plot",
		RequiredDataSources: []string{"weather"},
		EvaluationMode:      "hybrid",
		ModelType:           "simple",
		ModelConfig:         map[string]interface{}{"formula": "frost"},
		SeverityThresholds:  dto.SeverityThresholdsDTO{Low: 35, Medium: 60, High: 80, Critical: 93},
	}
}

func TestCatalogHandler_Register(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mockCatalogAppService)
	handler := NewCatalogHandler(svc)

	router := gin.New()
	router.POST("/risks", handler.Register)

	t.Run("created", func(t *testing.T) {
		body := registerBody()
		jsonBody, _ := json.Marshal(body)

		svc.On("Register", mock.Anything, mock.MatchedBy(func(r *dto.RegisterRiskRequest) bool {
			return r.Code == "frost_risk_v1"
		})).Return(&dto.RiskDefinitionResponse{Code: "frost_risk_v1", Active: true}, nil).Once()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/risks", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.RiskDefinitionResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "frost_risk_v1", resp.Code)
		svc.AssertExpectations(t)
	})

	t.Run("duplicate code maps to 409", func(t *testing.T) {
		body := registerBody()
		jsonBody, _ := json.Marshal(body)

		svc.On("Register", mock.Anything, mock.Anything).
			Return(nil, errors.ErrDuplicateCode("frost_risk_v1")).Once()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/risks", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)

		var resp errors.ErrorResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "duplicate_code", resp.Error)
	})

	t.Run("missing required fields rejected before the service", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/risks", bytes.NewBufferString(`{"code":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.MatchedBy(func(r *dto.RegisterRiskRequest) bool {
			return r.Code == "x"
		}))
	})

	t.Run("invalid thresholds map to 400", func(t *testing.T) {
		body := registerBody()
		body.SeverityThresholds = dto.SeverityThresholdsDTO{Low: 80, Medium: 60, High: 40, Critical: 20}
		jsonBody, _ := json.Marshal(body)

		svc.On("Register", mock.Anything, mock.Anything).
			Return(nil, errors.ErrInvalidThresholds("thresholds must be strictly increasing")).Once()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/risks", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp errors.ErrorResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "invalid_thresholds", resp.Error)
	})
}

func TestCatalogHandler_Lookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mockCatalogAppService)
	handler := NewCatalogHandler(svc)

	router := gin.New()
	router.GET("/risks/:code", handler.Lookup)

	t.Run("found", func(t *testing.T) {
		svc.On("Lookup", mock.Anything, "frost_risk_v1").
			Return(&dto.RiskDefinitionResponse{Code: "frost_risk_v1"}, nil).Once()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/risks/frost_risk_v1", nil)
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown code maps to 404", func(t *testing.T) {
		svc.On("Lookup", mock.Anything, "nope").
			Return(nil, errors.ErrNotFound("risk definition", "nope")).Once()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/risks/nope", nil)
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCatalogHandler_ListActive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mockCatalogAppService)
	handler := NewCatalogHandler(svc)

	router := gin.New()
	router.GET("/risks", handler.ListActive)

	svc.On("ListActive", mock.Anything, "weather", "", "batch").
		Return([]*dto.RiskDefinitionResponse{{Code: "a"}, {Code: "b"}}, nil).Once()

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/risks?domain=weather&mode=batch", nil)
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Count int `json:"count"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	svc.AssertExpectations(t)
}
