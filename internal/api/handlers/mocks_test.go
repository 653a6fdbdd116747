package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/homekrypto/estatio/internal/auth"
	"github.com/homekrypto/estatio/internal/billing"
	"github.com/homekrypto/estatio/internal/models"
	"github.com/homekrypto/estatio/internal/services"
)

// --- Mocks ---

// MockPropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) Create(ctx context.Context, agentID string, input *services.PropertyInput) (*models.Property, error) {
	args := m.Called(ctx, agentID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) Update(ctx context.Context, id int64, agentID string, patch *services.PropertyPatch) (*models.Property, error) {
	args := m.Called(ctx, id, agentID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) Delete(ctx context.Context, id int64, agentID string) error {
	args := m.Called(ctx, id, agentID)
	return args.Error(0)
}

func (m *MockPropertyService) GetByID(ctx context.Context, id int64) (*models.PropertyWithAgent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyWithAgent), args.Error(1)
}

func (m *MockPropertyService) GetByAgent(ctx context.Context, agentID string) ([]models.Property, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyService) Search(ctx context.Context, criteria *services.SearchCriteria) ([]models.PropertyWithAgent, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PropertyWithAgent), args.Error(1)
}

func (m *MockPropertyService) CountByAgent(ctx context.Context, agentID string) (int64, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPropertyService) AddGalleryImage(ctx context.Context, id int64, imageURL string) error {
	args := m.Called(ctx, id, imageURL)
	return args.Error(0)
}

// MockInquiryService
type MockInquiryService struct {
	mock.Mock
}

func (m *MockInquiryService) Create(ctx context.Context, propertyID int64, input *services.InquiryInput) (*models.Inquiry, error) {
	args := m.Called(ctx, propertyID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) GetByID(ctx context.Context, id int64) (*models.Inquiry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) GetByAgent(ctx context.Context, agentID string) ([]models.Inquiry, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Inquiry), args.Error(1)
}

// MockAgentService
type MockAgentService struct {
	mock.Mock
}

func (m *MockAgentService) UpsertFromClaims(ctx context.Context, claims *auth.Claims) (*models.Agent, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentService) FindByID(ctx context.Context, id string) (*models.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentService) FindByBillingCustomerID(ctx context.Context, customerID string) (*models.Agent, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentService) SetBillingInfo(ctx context.Context, agentID, customerID, subscriptionID string) error {
	args := m.Called(ctx, agentID, customerID, subscriptionID)
	return args.Error(0)
}

func (m *MockAgentService) SetSubscription(ctx context.Context, agentID string, plan models.SubscriptionPlan, status models.SubscriptionStatus) error {
	args := m.Called(ctx, agentID, plan, status)
	return args.Error(0)
}

func (m *MockAgentService) UpdateProfile(ctx context.Context, agentID string, patch *services.AgentProfilePatch) (*models.Agent, error) {
	args := m.Called(ctx, agentID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

// MockBillingService
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) Plans() []services.Plan {
	args := m.Called()
	return args.Get(0).([]services.Plan)
}

func (m *MockBillingService) PlanCapacity(plan models.SubscriptionPlan) int {
	args := m.Called(plan)
	return args.Int(0)
}

func (m *MockBillingService) CreateSubscription(ctx context.Context, agentID string, plan models.SubscriptionPlan) (*services.SubscriptionCheckout, error) {
	args := m.Called(ctx, agentID, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubscriptionCheckout), args.Error(1)
}

func (m *MockBillingService) ApplyWebhookEvent(ctx context.Context, event *billing.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockBillingService) SyncSubscription(ctx context.Context, agentID string) error {
	args := m.Called(ctx, agentID)
	return args.Error(0)
}

// MockBillingClient
type MockBillingClient struct {
	mock.Mock
}

func (m *MockBillingClient) CreateCustomer(ctx context.Context, email, name string) (*billing.Customer, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *MockBillingClient) CreateSubscription(ctx context.Context, customerID, plan string) (*billing.Subscription, error) {
	args := m.Called(ctx, customerID, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *MockBillingClient) GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *MockBillingClient) VerifySignature(payload []byte, signature string) bool {
	args := m.Called(payload, signature)
	return args.Bool(0)
}

// MockS3Storage
type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, propertyID int64, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, propertyID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockS3Storage) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

// MockAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
