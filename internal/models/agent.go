package models

import "time"

// SubscriptionPlan is the paid tier an agent subscribes to.
type SubscriptionPlan string

const (
	PlanBronze SubscriptionPlan = "bronze"
	PlanSilver SubscriptionPlan = "silver"
	PlanGold   SubscriptionPlan = "gold"
)

// SubscriptionStatus mirrors the billing provider's view of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// Agent is a user who publishes listings and receives inquiries. The ID is
// the subject assigned by the external identity provider. Subscription plan
// and status are a cache of the billing provider's state, refreshed via
// webhooks and the background sync task.
type Agent struct {
	ID              string   `bson:"_id" json:"id"`
	Email           string   `bson:"email" json:"email"`
	FirstName       string   `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName        string   `bson:"last_name,omitempty" json:"last_name,omitempty"`
	ProfileImageURL string   `bson:"profile_image_url,omitempty" json:"profile_image_url,omitempty"`
	AgencyName      string   `bson:"agency_name,omitempty" json:"agency_name,omitempty"`
	LicenseNumber   string   `bson:"license_number,omitempty" json:"license_number,omitempty"`
	PhoneNumber     string   `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	WhatsappNumber  string   `bson:"whatsapp_number,omitempty" json:"whatsapp_number,omitempty"`
	LanguagesSpoken []string `bson:"languages_spoken,omitempty" json:"languages_spoken,omitempty"`

	BillingCustomerID     string             `bson:"billing_customer_id,omitempty" json:"-"`
	BillingSubscriptionID string             `bson:"billing_subscription_id,omitempty" json:"-"`
	SubscriptionPlan      SubscriptionPlan   `bson:"subscription_plan,omitempty" json:"subscription_plan,omitempty"`
	SubscriptionStatus    SubscriptionStatus `bson:"subscription_status,omitempty" json:"subscription_status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AgentProfile is the public subset of an Agent that gets joined onto
// listings. Billing identifiers never leave the users collection.
type AgentProfile struct {
	ID              string   `bson:"_id" json:"id"`
	FirstName       string   `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName        string   `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Email           string   `bson:"email" json:"email"`
	ProfileImageURL string   `bson:"profile_image_url,omitempty" json:"profile_image_url,omitempty"`
	AgencyName      string   `bson:"agency_name,omitempty" json:"agency_name,omitempty"`
	PhoneNumber     string   `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	WhatsappNumber  string   `bson:"whatsapp_number,omitempty" json:"whatsapp_number,omitempty"`
	LanguagesSpoken []string `bson:"languages_spoken,omitempty" json:"languages_spoken,omitempty"`
}

// Profile returns the public view of the agent.
func (a *Agent) Profile() AgentProfile {
	return AgentProfile{
		ID:              a.ID,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Email:           a.Email,
		ProfileImageURL: a.ProfileImageURL,
		AgencyName:      a.AgencyName,
		PhoneNumber:     a.PhoneNumber,
		WhatsappNumber:  a.WhatsappNumber,
		LanguagesSpoken: a.LanguagesSpoken,
	}
}

// ValidSubscriptionPlan reports whether p is a known plan tier.
func ValidSubscriptionPlan(p SubscriptionPlan) bool {
	switch p {
	case PlanBronze, PlanSilver, PlanGold:
		return true
	}
	return false
}
