package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/homekrypto/estatio/internal/auth"
	"github.com/homekrypto/estatio/internal/billing"
	"github.com/homekrypto/estatio/internal/models"
)

type mockTaskEnqueuer struct {
	mock.Mock
}

func (m *mockTaskEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

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

func (m *MockAgentService) UpdateProfile(ctx context.Context, agentID string, patch *AgentProfilePatch) (*models.Agent, error) {
	args := m.Called(ctx, agentID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func TestBillingService_PlanCapacity(t *testing.T) {
	svc := NewBillingService(new(MockBillingClient), new(MockAgentService), nil)

	assert.Equal(t, 5, svc.PlanCapacity(models.PlanBronze))
	assert.Equal(t, 10, svc.PlanCapacity(models.PlanSilver))
	assert.Equal(t, 20, svc.PlanCapacity(models.PlanGold))
	assert.Equal(t, 0, svc.PlanCapacity(""))
	assert.Equal(t, 0, svc.PlanCapacity("platinum"))
}

func TestBillingService_Plans(t *testing.T) {
	svc := NewBillingService(new(MockBillingClient), new(MockAgentService), nil)
	allPlans := svc.Plans()
	require.Len(t, allPlans, 3)
	assert.Equal(t, models.PlanBronze, allPlans[0].Name)
	assert.Equal(t, "40.00", allPlans[0].MonthlyPrice)
}

func TestBillingService_CreateSubscription_NewCustomer(t *testing.T) {
	client := new(MockBillingClient)
	agents := new(MockAgentService)
	svc := NewBillingService(client, agents, nil)
	ctx := context.Background()

	agents.On("FindByID", mock.Anything, "agent-1").Return(&models.Agent{
		ID:        "agent-1",
		Email:     "agent1@example.com",
		FirstName: "Alex",
		LastName:  "Agent",
	}, nil)
	client.On("CreateCustomer", mock.Anything, "agent1@example.com", "Alex Agent").
		Return(&billing.Customer{ID: "cus_1"}, nil)
	client.On("CreateSubscription", mock.Anything, "cus_1", "silver").
		Return(&billing.Subscription{ID: "sub_1", CustomerID: "cus_1", Plan: "silver", Status: "incomplete", ClientSecret: "secret_1"}, nil)
	agents.On("SetBillingInfo", mock.Anything, "agent-1", "cus_1", "sub_1").Return(nil)

	checkout, err := svc.CreateSubscription(ctx, "agent-1", models.PlanSilver)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", checkout.SubscriptionID)
	assert.Equal(t, "secret_1", checkout.ClientSecret)
	client.AssertExpectations(t)
	agents.AssertExpectations(t)
}

func TestBillingService_CreateSubscription_SchedulesReconcileSync(t *testing.T) {
	client := new(MockBillingClient)
	agents := new(MockAgentService)
	enqueuer := new(mockTaskEnqueuer)
	svc := NewBillingService(client, agents, enqueuer)
	ctx := context.Background()

	agents.On("FindByID", mock.Anything, "agent-1").Return(&models.Agent{
		ID:    "agent-1",
		Email: "agent1@example.com",
	}, nil)
	client.On("CreateCustomer", mock.Anything, mock.Anything, mock.Anything).
		Return(&billing.Customer{ID: "cus_1"}, nil)
	client.On("CreateSubscription", mock.Anything, "cus_1", "bronze").
		Return(&billing.Subscription{ID: "sub_1", CustomerID: "cus_1", Plan: "bronze", Status: "incomplete"}, nil)
	agents.On("SetBillingInfo", mock.Anything, "agent-1", "cus_1", "sub_1").Return(nil)
	enqueuer.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		if task.Type() != TypeSubscriptionSync {
			return false
		}
		var p SubscriptionSyncPayload
		return json.Unmarshal(task.Payload(), &p) == nil && p.AgentID == "agent-1"
	})).Return(nil, nil)

	_, err := svc.CreateSubscription(ctx, "agent-1", models.PlanBronze)
	require.NoError(t, err)
	enqueuer.AssertExpectations(t)
}

func TestBillingService_CreateSubscription_ReusesLiveSubscription(t *testing.T) {
	client := new(MockBillingClient)
	agents := new(MockAgentService)
	enqueuer := new(mockTaskEnqueuer)
	svc := NewBillingService(client, agents, enqueuer)
	ctx := context.Background()

	agents.On("FindByID", mock.Anything, "agent-1").Return(&models.Agent{
		ID:                    "agent-1",
		Email:                 "agent1@example.com",
		BillingCustomerID:     "cus_1",
		BillingSubscriptionID: "sub_1",
	}, nil)
	client.On("GetSubscription", mock.Anything, "sub_1").
		Return(&billing.Subscription{ID: "sub_1", CustomerID: "cus_1", Plan: "gold", Status: "active", ClientSecret: "secret_live"}, nil)

	checkout, err := svc.CreateSubscription(ctx, "agent-1", models.PlanGold)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", checkout.SubscriptionID)
	client.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything, mock.Anything)
	enqueuer.AssertNotCalled(t, "EnqueueContext", mock.Anything, mock.Anything)
}

func TestBillingService_CreateSubscription_UnknownPlan(t *testing.T) {
	svc := NewBillingService(new(MockBillingClient), new(MockAgentService), nil)

	_, err := svc.CreateSubscription(context.Background(), "agent-1", "platinum")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "plan")
}

func TestBillingService_ApplyWebhookEvent(t *testing.T) {
	client := new(MockBillingClient)
	agents := new(MockAgentService)
	svc := NewBillingService(client, agents, nil)
	ctx := context.Background()

	agents.On("FindByBillingCustomerID", mock.Anything, "cus_1").Return(&models.Agent{
		ID:                    "agent-1",
		BillingCustomerID:     "cus_1",
		BillingSubscriptionID: "sub_1",
	}, nil)
	agents.On("SetSubscription", mock.Anything, "agent-1", models.PlanGold, models.SubscriptionActive).Return(nil)

	event := &billing.WebhookEvent{
		Type: "subscription.updated",
		Subscription: billing.Subscription{
			ID:         "sub_1",
			CustomerID: "cus_1",
			Plan:       "gold",
			Status:     "active",
		},
	}
	require.NoError(t, svc.ApplyWebhookEvent(ctx, event))
	agents.AssertExpectations(t)
}

func TestBillingService_ApplyWebhookEvent_UnknownCustomer(t *testing.T) {
	client := new(MockBillingClient)
	agents := new(MockAgentService)
	svc := NewBillingService(client, agents, nil)

	agents.On("FindByBillingCustomerID", mock.Anything, "cus_missing").Return(nil, ErrNotFound)

	event := &billing.WebhookEvent{
		Type:         "subscription.updated",
		Subscription: billing.Subscription{CustomerID: "cus_missing", Plan: "gold", Status: "active"},
	}
	err := svc.ApplyWebhookEvent(context.Background(), event)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizeSubscriptionStatus(t *testing.T) {
	assert.Equal(t, models.SubscriptionActive, normalizeSubscriptionStatus("active"))
	assert.Equal(t, models.SubscriptionActive, normalizeSubscriptionStatus("trialing"))
	assert.Equal(t, models.SubscriptionCanceled, normalizeSubscriptionStatus("canceled"))
	assert.Equal(t, models.SubscriptionCanceled, normalizeSubscriptionStatus("cancelled"))
	assert.Equal(t, models.SubscriptionExpired, normalizeSubscriptionStatus("past_due"))
}
