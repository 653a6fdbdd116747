package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/homekrypto/estatio/internal/api/middleware"
	"github.com/homekrypto/estatio/internal/models"
	"github.com/homekrypto/estatio/internal/services"
	"github.com/homekrypto/estatio/internal/storage"
	"github.com/homekrypto/estatio/internal/tasks"
	"github.com/homekrypto/estatio/internal/utils"
)

// IAsynqClient is the slice of asynq.Client the handlers use, extracted so
// tests can mock enqueueing.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PropertyHandler serves the public listing endpoints and the agent's own
// listing management.
type PropertyHandler struct {
	propertyService services.IPropertyService
	inquiryService  services.IInquiryService
	storageService  storage.IS3Storage
	taskClient      IAsynqClient
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(
	propertyService services.IPropertyService,
	inquiryService services.IInquiryService,
	storageService storage.IS3Storage,
	taskClient IAsynqClient,
) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		inquiryService:  inquiryService,
		storageService:  storageService,
		taskClient:      taskClient,
	}
}

func parsePropertyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return 0, false
	}
	return id, true
}

// SearchProperties handles GET /v1/properties
func (h *PropertyHandler) SearchProperties(c *gin.Context) {
	criteria := &services.SearchCriteria{}

	if location := c.Query("location"); location != "" {
		criteria.Location = &location
	}
	if minPriceStr := c.Query("min_price"); minPriceStr != "" {
		minPrice, err := utils.ParseMoney(minPriceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price"})
			return
		}
		criteria.MinPrice = &minPrice
	}
	if maxPriceStr := c.Query("max_price"); maxPriceStr != "" {
		maxPrice, err := utils.ParseMoney(maxPriceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
			return
		}
		criteria.MaxPrice = &maxPrice
	}
	if pt := c.Query("property_type"); pt != "" {
		propertyType := models.PropertyType(pt)
		criteria.PropertyType = &propertyType
	}
	if bedroomsStr := c.Query("min_bedrooms"); bedroomsStr != "" {
		bedrooms, err := strconv.Atoi(bedroomsStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_bedrooms"})
			return
		}
		criteria.MinBedrooms = &bedrooms
	}
	if bathroomsStr := c.Query("min_bathrooms"); bathroomsStr != "" {
		bathrooms, err := strconv.Atoi(bathroomsStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_bathrooms"})
			return
		}
		criteria.MinBathrooms = &bathrooms
	}
	if featuresStr := c.Query("features"); featuresStr != "" {
		for _, f := range strings.Split(featuresStr, ",") {
			if trimmed := strings.TrimSpace(f); trimmed != "" {
				criteria.Features = append(criteria.Features, trimmed)
			}
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		criteria.Limit = limit
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
			return
		}
		criteria.Offset = offset
	}

	results, err := h.propertyService.Search(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results})
}

// GetProperty handles GET /v1/properties/:id
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id, ok := parsePropertyID(c)
	if !ok {
		return
	}
	property, err := h.propertyService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

// CreateInquiry handles POST /v1/properties/:id/inquiries
func (h *PropertyHandler) CreateInquiry(c *gin.Context) {
	id, ok := parsePropertyID(c)
	if !ok {
		return
	}
	var input services.InquiryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	inquiry, err := h.inquiryService.Create(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inquiry)
}

// ListOwnProperties handles GET /v1/agent/properties
func (h *PropertyHandler) ListOwnProperties(c *gin.Context) {
	agentID, ok := middleware.AgentID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	properties, err := h.propertyService.GetByAgent(c.Request.Context(), agentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": properties})
}

// CreateProperty handles POST /v1/agent/properties
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	agentID, ok := middleware.AgentID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	var input services.PropertyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	property, err := h.propertyService.Create(c.Request.Context(), agentID, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, property)
}

// UpdateProperty handles PUT /v1/agent/properties/:id
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	agentID, ok := middleware.AgentID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parsePropertyID(c)
	if !ok {
		return
	}
	var patch services.PropertyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	property, err := h.propertyService.Update(c.Request.Context(), id, agentID, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

// DeleteProperty handles DELETE /v1/agent/properties/:id
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	agentID, ok := middleware.AgentID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parsePropertyID(c)
	if !ok {
		return
	}
	if err := h.propertyService.Delete(c.Request.Context(), id, agentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListInquiries handles GET /v1/agent/inquiries
func (h *PropertyHandler) ListInquiries(c *gin.Context) {
	agentID, ok := middleware.AgentID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	inquiries, err := h.inquiryService.GetByAgent(c.Request.Context(), agentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inquiries})
}

// ownedProperty loads a listing and hides it unless the caller owns it.
func (h *PropertyHandler) ownedProperty(c *gin.Context, id int64, agentID string) (*models.PropertyWithAgent, bool) {
	property, err := h.propertyService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if property.AgentID != agentID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return nil, false
	}
	return property, true
}

// RequestImageUpload handles POST /v1/agent/properties/:id/images. Returns a
// presigned S3 PUT URL the client uploads the photo to.
func (h *PropertyHandler) RequestImageUpload(c *gin.Context) {
	agentID, ok := middleware.AgentID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parsePropertyID(c)
	if !ok {
		return
	}
	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Filename == "" || req.ContentType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename and content_type are required"})
		return
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_type must be an image type"})
		return
	}

	if _, ok := h.ownedProperty(c, id, agentID); !ok {
		return
	}

	uploadURL, key, err := h.storageService.GeneratePresignedPutURL(c.Request.Context(), id, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_url": uploadURL, "s3_key": key})
}

// ConfirmImageUpload handles POST /v1/agent/properties/:id/images/confirm.
// Enqueues the processing task that resizes the photo and attaches it to the
// gallery.
func (h *PropertyHandler) ConfirmImageUpload(c *gin.Context) {
	agentID, ok := middleware.AgentID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	id, ok := parsePropertyID(c)
	if !ok {
		return
	}
	var req struct {
		S3Key string `json:"s3_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.S3Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "s3_key is required"})
		return
	}
	// The key must belong to this listing's prefix.
	if !strings.HasPrefix(req.S3Key, "properties/"+strconv.FormatInt(id, 10)+"/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "s3_key does not belong to this property"})
		return
	}

	if _, ok := h.ownedProperty(c, id, agentID); !ok {
		return
	}

	payload, err := json.Marshal(tasks.ImageTaskPayload{S3Key: req.S3Key, PropertyID: id})
	if err != nil {
		respondError(c, err)
		return
	}
	task := asynq.NewTask(tasks.TypeImageProcess, payload, asynq.Queue("images"))
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "processing"})
}
