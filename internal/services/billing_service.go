package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/homekrypto/estatio/internal/billing"
	"github.com/homekrypto/estatio/internal/models"
)

// TypeSubscriptionSync is the asynq task type that reconciles one agent's
// cached subscription state with the provider. It lives here because the
// billing service enqueues it.
const TypeSubscriptionSync = "billing:subscription:sync"

// SubscriptionSyncPayload is the payload of a billing:subscription:sync task.
type SubscriptionSyncPayload struct {
	AgentID string `json:"agent_id"`
}

// subscriptionSyncDelay is how long after checkout the reconciliation sync
// runs. The provider webhook normally lands well before this.
const subscriptionSyncDelay = time.Hour

// Plan describes one subscription tier offered to agents. Capacity is the
// listing count shown on the dashboard; it never gates creation.
type Plan struct {
	Name         models.SubscriptionPlan `json:"name"`
	MonthlyPrice string                  `json:"monthly_price"`
	Capacity     int                     `json:"capacity"`
}

var plans = []Plan{
	{Name: models.PlanBronze, MonthlyPrice: "40.00", Capacity: 5},
	{Name: models.PlanSilver, MonthlyPrice: "60.00", Capacity: 10},
	{Name: models.PlanGold, MonthlyPrice: "80.00", Capacity: 20},
}

// IBillingService ties agents to the external billing provider.
type IBillingService interface {
	Plans() []Plan
	PlanCapacity(plan models.SubscriptionPlan) int
	CreateSubscription(ctx context.Context, agentID string, plan models.SubscriptionPlan) (*SubscriptionCheckout, error)
	ApplyWebhookEvent(ctx context.Context, event *billing.WebhookEvent) error
	SyncSubscription(ctx context.Context, agentID string) error
}

// SubscriptionCheckout is returned to the frontend so it can complete payment
// with the provider.
type SubscriptionCheckout struct {
	SubscriptionID string `json:"subscription_id"`
	ClientSecret   string `json:"client_secret"`
}

type billingService struct {
	client       billing.IClient
	agentService IAgentService
	taskClient   TaskEnqueuer
}

// NewBillingService creates a new billing service. taskClient may be nil, in
// which case no reconciliation tasks are scheduled after checkout.
func NewBillingService(client billing.IClient, agentService IAgentService, taskClient TaskEnqueuer) IBillingService {
	return &billingService{client: client, agentService: agentService, taskClient: taskClient}
}

// Plans returns the offered tiers.
func (s *billingService) Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanCapacity returns the listing capacity of a plan, 0 for unknown or
// unsubscribed.
func (s *billingService) PlanCapacity(plan models.SubscriptionPlan) int {
	for _, p := range plans {
		if p.Name == plan {
			return p.Capacity
		}
	}
	return 0
}

// CreateSubscription ensures the agent has a billing customer, reuses an
// existing subscription when one is on file, and otherwise opens a new one on
// the requested plan.
func (s *billingService) CreateSubscription(ctx context.Context, agentID string, plan models.SubscriptionPlan) (*SubscriptionCheckout, error) {
	if agentID == "" {
		return nil, ErrAuthenticationRequired
	}
	if !models.ValidSubscriptionPlan(plan) {
		verr := NewValidationError()
		verr.Add("plan", "unknown plan")
		return nil, verr
	}

	agent, err := s.agentService.FindByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	// An agent with a stored subscription resumes it instead of opening a
	// second one.
	if agent.BillingSubscriptionID != "" {
		sub, err := s.client.GetSubscription(ctx, agent.BillingSubscriptionID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch existing subscription: %w", err)
		}
		if sub.Status != string(models.SubscriptionCanceled) && sub.Status != string(models.SubscriptionExpired) {
			return &SubscriptionCheckout{SubscriptionID: sub.ID, ClientSecret: sub.ClientSecret}, nil
		}
	}

	customerID := agent.BillingCustomerID
	if customerID == "" {
		name := agent.FirstName + " " + agent.LastName
		customer, err := s.client.CreateCustomer(ctx, agent.Email, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create billing customer: %w", err)
		}
		customerID = customer.ID
	}

	sub, err := s.client.CreateSubscription(ctx, customerID, string(plan))
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := s.agentService.SetBillingInfo(ctx, agentID, customerID, sub.ID); err != nil {
		return nil, err
	}

	// Schedule a delayed sync so the cached state gets reconciled even if
	// the provider webhook never arrives. Enqueue failures never fail the
	// checkout itself.
	if s.taskClient != nil {
		payload, err := json.Marshal(SubscriptionSyncPayload{AgentID: agentID})
		if err == nil {
			task := asynq.NewTask(TypeSubscriptionSync, payload)
			if _, err := s.taskClient.EnqueueContext(ctx, task, asynq.ProcessIn(subscriptionSyncDelay), asynq.Queue("low")); err != nil {
				log.Printf("Failed to enqueue subscription sync for agent %s: %v", agentID, err)
			}
		}
	}

	return &SubscriptionCheckout{SubscriptionID: sub.ID, ClientSecret: sub.ClientSecret}, nil
}

// ApplyWebhookEvent updates the agent's cached plan/status from a verified
// provider event. Events for unknown customers are logged and dropped.
func (s *billingService) ApplyWebhookEvent(ctx context.Context, event *billing.WebhookEvent) error {
	if event == nil || event.CustomerID == "" {
		verr := NewValidationError()
		verr.Add("customer_id", "required")
		return verr
	}

	agent, err := s.agentService.FindByBillingCustomerID(ctx, event.CustomerID)
	if err != nil {
		log.Printf("Billing webhook for unknown customer %s (event %s)", event.CustomerID, event.Type)
		return err
	}

	plan := models.SubscriptionPlan(event.Plan)
	status := normalizeSubscriptionStatus(event.Status)
	if err := s.agentService.SetSubscription(ctx, agent.ID, plan, status); err != nil {
		return err
	}
	if event.Subscription.ID != "" && event.Subscription.ID != agent.BillingSubscriptionID {
		if err := s.agentService.SetBillingInfo(ctx, agent.ID, "", event.Subscription.ID); err != nil {
			return err
		}
	}
	return nil
}

// SyncSubscription refreshes one agent's cached plan/status directly from the
// provider. Used by the background sync task.
func (s *billingService) SyncSubscription(ctx context.Context, agentID string) error {
	agent, err := s.agentService.FindByID(ctx, agentID)
	if err != nil {
		return err
	}
	if agent.BillingSubscriptionID == "" {
		return nil
	}

	sub, err := s.client.GetSubscription(ctx, agent.BillingSubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription for sync: %w", err)
	}
	return s.agentService.SetSubscription(ctx, agent.ID,
		models.SubscriptionPlan(sub.Plan), normalizeSubscriptionStatus(sub.Status))
}

// normalizeSubscriptionStatus folds the provider's status vocabulary into the
// three states we cache.
func normalizeSubscriptionStatus(status string) models.SubscriptionStatus {
	switch status {
	case "active", "trialing":
		return models.SubscriptionActive
	case "canceled", "cancelled":
		return models.SubscriptionCanceled
	default:
		return models.SubscriptionExpired
	}
}
