package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/homekrypto/estatio/internal/api/handlers"
	"github.com/homekrypto/estatio/internal/api/middleware"
	"github.com/homekrypto/estatio/internal/billing"
	"github.com/homekrypto/estatio/internal/config"
	"github.com/homekrypto/estatio/internal/services"
	"github.com/homekrypto/estatio/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, taskClient handlers.IAsynqClient) *gin.Engine {
	// Initialize services needed by API handlers
	agentService := services.NewAgentService(db)
	propertyService := services.NewPropertyService(db, cfg)
	inquiryService := services.NewInquiryService(db, cfg, taskClient)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	billingClient := billing.NewClient(cfg)
	billingService := services.NewBillingService(billingClient, agentService, taskClient)

	r := gin.Default()

	// Initialize Middleware
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	propertyHandler := handlers.NewPropertyHandler(propertyService, inquiryService, s3StorageService, taskClient)
	agentHandler := handlers.NewAgentHandler(agentService, propertyService, billingService)
	billingHandler := handlers.NewBillingHandler(billingService, billingClient)

	v1 := r.Group("/v1")
	{
		// Public routes (rate limiting already applied globally)
		v1.GET("/properties", propertyHandler.SearchProperties)
		v1.GET("/properties/:id", propertyHandler.GetProperty)
		v1.POST("/properties/:id/inquiries", propertyHandler.CreateInquiry)
		v1.GET("/billing/plans", billingHandler.GetPlans)
		v1.POST("/billing/webhook", billingHandler.Webhook)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/auth/me", agentHandler.GetMe)

			agent := authRequired.Group("/agent")
			{
				agent.GET("/properties", propertyHandler.ListOwnProperties)
				agent.POST("/properties", propertyHandler.CreateProperty)
				agent.PUT("/properties/:id", propertyHandler.UpdateProperty)
				agent.DELETE("/properties/:id", propertyHandler.DeleteProperty)
				agent.POST("/properties/:id/images", propertyHandler.RequestImageUpload)
				agent.POST("/properties/:id/images/confirm", propertyHandler.ConfirmImageUpload)
				agent.GET("/inquiries", propertyHandler.ListInquiries)
				agent.PUT("/profile", agentHandler.UpdateProfile)
				agent.POST("/subscription", billingHandler.CreateSubscription)
			}
		}
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine listening
// on the internal port.
func SetupServiceRouter(cfg *config.Config, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "app": cfg.AppName})
	})

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				fmt.Println("Shutdown signal sent successfully.")
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		default:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("Unknown method: %s", req.Method)})
		}
	})

	return r
}
