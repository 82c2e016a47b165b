package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the payment provider's REST API and verifies inbound
// webhook signatures with the shared signing secret.
type Client struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
	now           func() time.Time
}

// NewClient creates a provider client. apiKey authenticates outbound API
// calls; webhookSecret verifies inbound event signatures.
func NewClient(apiKey, webhookSecret string) *Client {
	return &Client{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		baseURL:       "https://api.payments.example.com",
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		now:           time.Now,
	}
}

// WithBaseURL overrides the provider API endpoint (tests, sandboxes).
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// CreateCheckoutSession creates a hosted subscription checkout session.
// userId and planName are attached both to the session and to the
// subscription it creates, so every later lifecycle event can be
// correlated back to the local user.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("client_reference_id", params.UserID)
	form.Set("metadata[userId]", params.UserID)
	form.Set("metadata[planName]", params.PlanName)
	form.Set("subscription_data[metadata][userId]", params.UserID)
	form.Set("subscription_data[metadata][planName]", params.PlanName)

	var session struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.postForm(ctx, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// CreatePortalSession creates a billing-portal session for a customer.
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", returnURL)

	var session struct {
		URL string `json:"url"`
	}
	if err := c.postForm(ctx, "/v1/billing_portal/sessions", form, &session); err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return session.URL, nil
}

// SubscriptionMetadata retrieves the metadata map of a subscription.
func (c *Client) SubscriptionMetadata(ctx context.Context, subscriptionID string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/subscriptions/"+url.PathEscape(subscriptionID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var sub struct {
		Metadata map[string]string `json:"metadata"`
	}
	if err := c.do(req, &sub); err != nil {
		return nil, fmt.Errorf("failed to retrieve subscription %s: %w", subscriptionID, err)
	}
	return sub.Metadata, nil
}

// VerifySignature checks the webhook signature header against the raw
// payload using the shared signing secret.
func (c *Client) VerifySignature(payload []byte, header string) error {
	return VerifyPayload(c.webhookSecret, payload, header, c.now(), DefaultTolerance)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("provider returned %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("provider returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}
