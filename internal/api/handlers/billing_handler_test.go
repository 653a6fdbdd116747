package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/homekrypto/estatio/internal/api/handlers"
	"github.com/homekrypto/estatio/internal/api/middleware"
	"github.com/homekrypto/estatio/internal/billing"
	"github.com/homekrypto/estatio/internal/models"
	"github.com/homekrypto/estatio/internal/services"
)

func newBillingRouter(h *handlers.BillingHandler, agentID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/billing/plans", h.GetPlans)
	r.POST("/v1/billing/webhook", h.Webhook)
	r.POST("/v1/agent/subscription", func(c *gin.Context) {
		if agentID != "" {
			c.Set(middleware.ContextKeyAgentID, agentID)
		}
		h.CreateSubscription(c)
	})
	return r
}

func TestBillingHandler_GetPlans(t *testing.T) {
	mockBillingSvc := new(MockBillingService)
	h := handlers.NewBillingHandler(mockBillingSvc, new(MockBillingClient))
	r := newBillingRouter(h, "")

	mockBillingSvc.On("Plans").Return([]services.Plan{
		{Name: models.PlanBronze, MonthlyPrice: "40.00", Capacity: 5},
		{Name: models.PlanSilver, MonthlyPrice: "60.00", Capacity: 10},
		{Name: models.PlanGold, MonthlyPrice: "80.00", Capacity: 20},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/billing/plans", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody struct {
		Data []services.Plan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	require.Len(t, respBody.Data, 3)
	assert.Equal(t, 5, respBody.Data[0].Capacity)
}

func TestBillingHandler_CreateSubscription(t *testing.T) {
	mockBillingSvc := new(MockBillingService)
	h := handlers.NewBillingHandler(mockBillingSvc, new(MockBillingClient))
	r := newBillingRouter(h, "agent-1")

	mockBillingSvc.On("CreateSubscription", mock.Anything, "agent-1", models.PlanGold).
		Return(&services.SubscriptionCheckout{SubscriptionID: "sub_1", ClientSecret: "secret_1"}, nil)

	body := `{"plan":"gold"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/agent/subscription", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody services.SubscriptionCheckout
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, "secret_1", respBody.ClientSecret)
}

func TestBillingHandler_Webhook_BadSignatureRejected(t *testing.T) {
	mockBillingSvc := new(MockBillingService)
	mockClient := new(MockBillingClient)
	h := handlers.NewBillingHandler(mockBillingSvc, mockClient)
	r := newBillingRouter(h, "")

	mockClient.On("VerifySignature", mock.Anything, "bad-signature").Return(false)

	body := `{"type":"subscription.updated"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/billing/webhook", bytes.NewBufferString(body))
	req.Header.Set(handlers.SignatureHeader, "bad-signature")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockBillingSvc.AssertNotCalled(t, "ApplyWebhookEvent", mock.Anything, mock.Anything)
}

func TestBillingHandler_Webhook_MissingSignatureRejected(t *testing.T) {
	h := handlers.NewBillingHandler(new(MockBillingService), new(MockBillingClient))
	r := newBillingRouter(h, "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/billing/webhook", bytes.NewBufferString(`{}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBillingHandler_Webhook_AppliesEvent(t *testing.T) {
	mockBillingSvc := new(MockBillingService)
	mockClient := new(MockBillingClient)
	h := handlers.NewBillingHandler(mockBillingSvc, mockClient)
	r := newBillingRouter(h, "")

	mockClient.On("VerifySignature", mock.Anything, "good-signature").Return(true)
	mockBillingSvc.On("ApplyWebhookEvent", mock.Anything, mock.MatchedBy(func(e *billing.WebhookEvent) bool {
		return e.Type == "subscription.updated" && e.CustomerID == "cus_1" && e.Plan == "gold"
	})).Return(nil)

	body := `{"type":"subscription.updated","subscription":{"id":"sub_1","customer_id":"cus_1","plan":"gold","status":"active"}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/billing/webhook", bytes.NewBufferString(body))
	req.Header.Set(handlers.SignatureHeader, "good-signature")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockBillingSvc.AssertExpectations(t)
}
