package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homekrypto/estatio/internal/auth"
	"github.com/homekrypto/estatio/internal/models"
)

// IAgentService manages agent records mirrored from the identity provider.
type IAgentService interface {
	UpsertFromClaims(ctx context.Context, claims *auth.Claims) (*models.Agent, error)
	FindByID(ctx context.Context, id string) (*models.Agent, error)
	FindByBillingCustomerID(ctx context.Context, customerID string) (*models.Agent, error)
	SetBillingInfo(ctx context.Context, agentID, customerID, subscriptionID string) error
	SetSubscription(ctx context.Context, agentID string, plan models.SubscriptionPlan, status models.SubscriptionStatus) error
	UpdateProfile(ctx context.Context, agentID string, patch *AgentProfilePatch) (*models.Agent, error)
}

// AgentProfilePatch carries the profile fields an agent may edit themselves.
// Identity fields (email, names) come from the provider and are not patchable.
type AgentProfilePatch struct {
	AgencyName      *string  `json:"agency_name"`
	LicenseNumber   *string  `json:"license_number"`
	PhoneNumber     *string  `json:"phone_number"`
	WhatsappNumber  *string  `json:"whatsapp_number"`
	LanguagesSpoken []string `json:"languages_spoken"`
	ProfileImageURL *string  `json:"profile_image_url"`
}

type agentService struct {
	db *mongo.Database
}

// NewAgentService creates a new agent service.
func NewAgentService(database *mongo.Database) IAgentService {
	return &agentService{db: database}
}

func (s *agentService) collection() *mongo.Collection {
	return s.db.Collection(usersCollection)
}

// UpsertFromClaims creates or refreshes the agent record from verified token
// claims and returns the stored state.
func (s *agentService) UpsertFromClaims(ctx context.Context, claims *auth.Claims) (*models.Agent, error) {
	if claims == nil || claims.AgentID() == "" {
		return nil, ErrAuthenticationRequired
	}

	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	if claims.Email != "" {
		set["email"] = claims.Email
	}
	if claims.FirstName != "" {
		set["first_name"] = claims.FirstName
	}
	if claims.LastName != "" {
		set["last_name"] = claims.LastName
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var agent models.Agent
	err := s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": claims.AgentID()},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"created_at": now},
		},
		opts,
	).Decode(&agent)
	if err != nil {
		return nil, storageErr("agent upsert", err)
	}
	return &agent, nil
}

// FindByID fetches an agent record.
func (s *agentService) FindByID(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, storageErr("agent get", err)
	}
	return &agent, nil
}

// FindByBillingCustomerID resolves a billing provider customer back to the
// agent. Used by the webhook handler.
func (s *agentService) FindByBillingCustomerID(ctx context.Context, customerID string) (*models.Agent, error) {
	var agent models.Agent
	err := s.collection().FindOne(ctx, bson.M{"billing_customer_id": customerID}).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, storageErr("agent get by billing customer", err)
	}
	return &agent, nil
}

// SetBillingInfo stores the billing provider's customer and subscription ids
// on the agent.
func (s *agentService) SetBillingInfo(ctx context.Context, agentID, customerID, subscriptionID string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if customerID != "" {
		set["billing_customer_id"] = customerID
	}
	if subscriptionID != "" {
		set["billing_subscription_id"] = subscriptionID
	}
	res, err := s.collection().UpdateOne(ctx, bson.M{"_id": agentID}, bson.M{"$set": set})
	if err != nil {
		return storageErr("agent billing info update", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSubscription refreshes the cached plan and status from the billing
// provider's view.
func (s *agentService) SetSubscription(ctx context.Context, agentID string, plan models.SubscriptionPlan, status models.SubscriptionStatus) error {
	res, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": agentID},
		bson.M{"$set": bson.M{
			"subscription_plan":   plan,
			"subscription_status": status,
			"updated_at":          time.Now().UTC(),
		}},
	)
	if err != nil {
		return storageErr("agent subscription update", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile applies the agent-editable profile fields.
func (s *agentService) UpdateProfile(ctx context.Context, agentID string, patch *AgentProfilePatch) (*models.Agent, error) {
	if agentID == "" {
		return nil, ErrAuthenticationRequired
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.AgencyName != nil {
		set["agency_name"] = *patch.AgencyName
	}
	if patch.LicenseNumber != nil {
		set["license_number"] = *patch.LicenseNumber
	}
	if patch.PhoneNumber != nil {
		set["phone_number"] = *patch.PhoneNumber
	}
	if patch.WhatsappNumber != nil {
		set["whatsapp_number"] = *patch.WhatsappNumber
	}
	if patch.LanguagesSpoken != nil {
		set["languages_spoken"] = patch.LanguagesSpoken
	}
	if patch.ProfileImageURL != nil {
		set["profile_image_url"] = *patch.ProfileImageURL
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var agent models.Agent
	err := s.collection().FindOneAndUpdate(ctx, bson.M{"_id": agentID}, bson.M{"$set": set}, opts).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, storageErr("agent profile update", err)
	}
	return &agent, nil
}
