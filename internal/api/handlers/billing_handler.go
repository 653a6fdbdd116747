package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/homekrypto/estatio/internal/api/middleware"
	"github.com/homekrypto/estatio/internal/billing"
	"github.com/homekrypto/estatio/internal/models"
	"github.com/homekrypto/estatio/internal/services"
)

// SignatureHeader carries the billing provider's HMAC signature on webhook
// deliveries.
const SignatureHeader = "X-Billing-Signature"

// BillingHandler serves plan info, subscription creation and the provider
// webhook.
type BillingHandler struct {
	billingService services.IBillingService
	billingClient  billing.IClient
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billingService services.IBillingService, billingClient billing.IClient) *BillingHandler {
	return &BillingHandler{billingService: billingService, billingClient: billingClient}
}

// GetPlans handles GET /v1/billing/plans
func (h *BillingHandler) GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.billingService.Plans()})
}

// CreateSubscription handles POST /v1/agent/subscription
func (h *BillingHandler) CreateSubscription(c *gin.Context) {
	agentID, ok := middleware.AgentID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	var req struct {
		Plan models.SubscriptionPlan `json:"plan"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	checkout, err := h.billingService.CreateSubscription(c.Request.Context(), agentID, req.Plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkout)
}

// Webhook handles POST /v1/billing/webhook. The raw body is verified against
// the provider's HMAC signature before being parsed.
func (h *BillingHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if signature == "" || !h.billingClient.VerifySignature(body, signature) {
		log.Printf("Billing webhook rejected: bad or missing signature from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var event billing.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	if err := h.billingService.ApplyWebhookEvent(c.Request.Context(), &event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
