package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/homekrypto/estatio/internal/api/middleware"
	"github.com/homekrypto/estatio/internal/auth"
	"github.com/homekrypto/estatio/internal/services"
)

// AgentHandler serves the authenticated agent's own record.
type AgentHandler struct {
	agentService    services.IAgentService
	propertyService services.IPropertyService
	billingService  services.IBillingService
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(
	agentService services.IAgentService,
	propertyService services.IPropertyService,
	billingService services.IBillingService,
) *AgentHandler {
	return &AgentHandler{
		agentService:    agentService,
		propertyService: propertyService,
		billingService:  billingService,
	}
}

// GetMe handles GET /v1/auth/me. Upserts the agent record from the verified
// token claims and returns it together with the plan-capacity readout.
func (h *AgentHandler) GetMe(c *gin.Context) {
	claimsVal, exists := c.Get(middleware.ContextKeyClaims)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	claims, ok := claimsVal.(*auth.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	agent, err := h.agentService.UpsertFromClaims(c.Request.Context(), claims)
	if err != nil {
		respondError(c, err)
		return
	}

	used, err := h.propertyService.CountByAgent(c.Request.Context(), agent.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agent": agent,
		"capacity": gin.H{
			"used":  used,
			"limit": h.billingService.PlanCapacity(agent.SubscriptionPlan),
		},
	})
}

// UpdateProfile handles PUT /v1/agent/profile.
func (h *AgentHandler) UpdateProfile(c *gin.Context) {
	agentID, ok := middleware.AgentID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	var patch services.AgentProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	agent, err := h.agentService.UpdateProfile(c.Request.Context(), agentID, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}
