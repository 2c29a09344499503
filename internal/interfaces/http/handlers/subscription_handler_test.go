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
	"github.com/agrovia/riskengine/internal/interfaces/http/middleware"
	"github.com/agrovia/riskengine/pkg/constants"
	"github.com/agrovia/riskengine/pkg/errors"
)

type mockSubscriptionAppService struct {
	mock.Mock
}

func (m *mockSubscriptionAppService) Upsert(ctx context.Context, tenantID string, req *dto.UpsertSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SubscriptionResponse), args.Error(1)
}

func (m *mockSubscriptionAppService) List(ctx context.Context, tenantID string) ([]*dto.SubscriptionResponse, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.SubscriptionResponse), args.Error(1)
}

func (m *mockSubscriptionAppService) Delete(ctx context.Context, tenantID, riskCode string) error {
	args := m.Called(ctx, tenantID, riskCode)
	return args.Error(0)
}

func subscriptionRouter(handler *SubscriptionHandler) *gin.Engine {
	router := gin.New()
	scoped := router.Group("", middleware.TenantScope())
	scoped.PUT("/subscriptions", handler.Upsert)
	scoped.GET("/subscriptions", handler.List)
	scoped.DELETE("/subscriptions/:risk_code", handler.Delete)
	return router
}

func TestSubscriptionHandler_Upsert(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mockSubscriptionAppService)
	router := subscriptionRouter(NewSubscriptionHandler(svc))

	t.Run("upserts for the caller's tenant", func(t *testing.T) {
		body, _ := json.Marshal(&dto.UpsertSubscriptionRequest{
			RiskCode:      "frost_risk_v1",
			UserThreshold: 70,
		})

		svc.On("Upsert", mock.Anything, "tenant-a", mock.MatchedBy(func(r *dto.UpsertSubscriptionRequest) bool {
			return r.RiskCode == "frost_risk_v1" && r.UserThreshold == 70
		})).Return(&dto.SubscriptionResponse{TenantID: "tenant-a", RiskCode: "frost_risk_v1"}, nil).Once()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPut, "/subscriptions", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(constants.TenantIDHeader, "tenant-a")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unknown risk code maps to 404", func(t *testing.T) {
		body, _ := json.Marshal(&dto.UpsertSubscriptionRequest{RiskCode: "ghost"})

		svc.On("Upsert", mock.Anything, "tenant-a", mock.Anything).
			Return(nil, errors.ErrNotFound("risk definition", "ghost")).Once()

		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPut, "/subscriptions", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(constants.TenantIDHeader, "tenant-a")
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestSubscriptionHandler_Delete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mockSubscriptionAppService)
	router := subscriptionRouter(NewSubscriptionHandler(svc))

	svc.On("Delete", mock.Anything, "tenant-a", "frost_risk_v1").Return(nil).Once()

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/subscriptions/frost_risk_v1", nil)
	req.Header.Set(constants.TenantIDHeader, "tenant-a")
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	svc.AssertExpectations(t)
}
