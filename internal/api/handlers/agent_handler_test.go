package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/homekrypto/estatio/internal/api/handlers"
	"github.com/homekrypto/estatio/internal/api/middleware"
	"github.com/homekrypto/estatio/internal/auth"
	"github.com/homekrypto/estatio/internal/models"
)

func newAgentRouter(h *handlers.AgentHandler, claims *auth.Claims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextKeyAgentID, claims.AgentID())
			c.Set(middleware.ContextKeyClaims, claims)
		}
		c.Next()
	})
	r.GET("/v1/auth/me", h.GetMe)
	r.PUT("/v1/agent/profile", h.UpdateProfile)
	return r
}

func testClaims(agentID, email string) *auth.Claims {
	return &auth.Claims{
		Email:     email,
		FirstName: "Alex",
		LastName:  "Agent",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: agentID,
		},
	}
}

func TestAgentHandler_GetMe(t *testing.T) {
	mockAgentSvc := new(MockAgentService)
	mockPropertySvc := new(MockPropertyService)
	mockBillingSvc := new(MockBillingService)
	h := handlers.NewAgentHandler(mockAgentSvc, mockPropertySvc, mockBillingSvc)

	claims := testClaims("agent-1", "agent1@example.com")
	r := newAgentRouter(h, claims)

	agent := &models.Agent{
		ID:               "agent-1",
		Email:            "agent1@example.com",
		SubscriptionPlan: models.PlanSilver,
	}
	mockAgentSvc.On("UpsertFromClaims", mock.Anything, claims).Return(agent, nil)
	mockPropertySvc.On("CountByAgent", mock.Anything, "agent-1").Return(int64(4), nil)
	mockBillingSvc.On("PlanCapacity", models.PlanSilver).Return(10)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/auth/me", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody struct {
		Agent    models.Agent `json:"agent"`
		Capacity struct {
			Used  int64 `json:"used"`
			Limit int   `json:"limit"`
		} `json:"capacity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, "agent-1", respBody.Agent.ID)
	assert.Equal(t, int64(4), respBody.Capacity.Used)
	assert.Equal(t, 10, respBody.Capacity.Limit)
	mockAgentSvc.AssertExpectations(t)
}

func TestAgentHandler_GetMe_Unauthenticated(t *testing.T) {
	h := handlers.NewAgentHandler(new(MockAgentService), new(MockPropertyService), new(MockBillingService))
	r := newAgentRouter(h, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/auth/me", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAgentHandler_UpdateProfile(t *testing.T) {
	mockAgentSvc := new(MockAgentService)
	h := handlers.NewAgentHandler(mockAgentSvc, new(MockPropertyService), new(MockBillingService))
	r := newAgentRouter(h, testClaims("agent-1", "agent1@example.com"))

	updated := &models.Agent{ID: "agent-1", AgencyName: "Coastal Estates"}
	mockAgentSvc.On("UpdateProfile", mock.Anything, "agent-1", mock.Anything).Return(updated, nil)

	body := `{"agency_name":"Coastal Estates"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/v1/agent/profile", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockAgentSvc.AssertExpectations(t)
}
