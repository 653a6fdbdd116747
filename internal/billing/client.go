package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/homekrypto/estatio/internal/config"
)

// IClient defines the interface to the external billing provider.
type IClient interface {
	CreateCustomer(ctx context.Context, email, name string) (*Customer, error)
	CreateSubscription(ctx context.Context, customerID, plan string) (*Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	VerifySignature(payload []byte, signature string) bool
}

// Customer is the provider's customer record.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Subscription is the provider's view of a subscription.
type Subscription struct {
	ID           string `json:"id"`
	CustomerID   string `json:"customer_id"`
	Plan         string `json:"plan"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// WebhookEvent is the envelope the provider posts to our webhook endpoint.
type WebhookEvent struct {
	Type         string `json:"type"`
	Subscription `json:"subscription"`
}

// client implements IClient over the provider's REST API.
type client struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewClient creates a new billing provider client.
func NewClient(cfg *config.Config) IClient {
	return &client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if c.cfg.BillingAPIURL == "" {
		return fmt.Errorf("billing provider not configured")
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode billing request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BillingAPIURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create billing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.BillingAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Error calling billing provider %s %s: %v", method, path, err)
		return fmt.Errorf("failed to contact billing provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read billing response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Billing provider returned non-OK status: %d - Body: %s", resp.StatusCode, string(respBody))
		return fmt.Errorf("billing provider returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse billing response: %w", err)
		}
	}
	return nil
}

// CreateCustomer registers the agent with the billing provider.
func (c *client) CreateCustomer(ctx context.Context, email, name string) (*Customer, error) {
	customer := &Customer{}
	payload := map[string]string{"email": email, "name": name}
	if err := c.do(ctx, http.MethodPost, "/v1/customers", payload, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// CreateSubscription opens a subscription for the customer on the given plan
// and returns the client secret the frontend completes payment with.
func (c *client) CreateSubscription(ctx context.Context, customerID, plan string) (*Subscription, error) {
	sub := &Subscription{}
	payload := map[string]string{"customer_id": customerID, "plan": plan}
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions", payload, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetSubscription fetches the provider's current view of a subscription.
func (c *client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	sub := &Subscription{}
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions/"+subscriptionID, nil, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// VerifySignature checks the HMAC-SHA256 hex signature the provider sends
// with each webhook delivery.
func (c *client) VerifySignature(payload []byte, signature string) bool {
	if c.cfg.BillingWebhookSecret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.BillingWebhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
