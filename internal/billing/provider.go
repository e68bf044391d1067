package billing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/pkg/config"
)

// ProviderSubscription is the provider-side view of a subscription, reduced
// to the fields the reconciler needs.
type ProviderSubscription struct {
	ID               string
	CustomerID       string
	PriceID          string
	Status           string
	CurrentPeriodEnd time.Time
}

// Session is a provider-hosted checkout or billing-portal session.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutParams describes a subscription checkout to create.
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	TenantID   uint
	SuccessURL string
	CancelURL  string
}

// Provider is the payment-provider surface the service consumes. Calls may
// fail transiently; failures are surfaced as ErrUpstreamUnavailable and never
// retried here (retry policy belongs to the caller of the webhook or route).
type Provider interface {
	Subscription(id string) (*ProviderSubscription, error)
	EnsureCustomer(email, name string, tenantID uint) (string, error)
	CreateCheckoutSession(p CheckoutParams) (*Session, error)
	CreatePortalSession(customerID, returnURL string) (*Session, error)
}

// PaymentClient talks to the provider's REST API with the account secret.
type PaymentClient struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

// NewPaymentClient creates a provider client from configuration.
func NewPaymentClient(cfg *config.PaymentConfig) *PaymentClient {
	return &PaymentClient{
		BaseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		SecretKey:  cfg.SecretKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type providerSubscriptionResponse struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	Items            struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// Subscription fetches the current authoritative subscription state.
func (c *PaymentClient) Subscription(id string) (*ProviderSubscription, error) {
	var resp providerSubscriptionResponse
	if err := c.do("GET", "/v1/subscriptions/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}

	sub := &ProviderSubscription{
		ID:         resp.ID,
		CustomerID: resp.Customer,
		Status:     resp.Status,
	}
	if resp.CurrentPeriodEnd > 0 {
		sub.CurrentPeriodEnd = time.Unix(resp.CurrentPeriodEnd, 0).UTC()
	}
	if len(resp.Items.Data) > 0 {
		sub.PriceID = resp.Items.Data[0].Price.ID
	}
	return sub, nil
}

type providerCustomerResponse struct {
	ID string `json:"id"`
}

type providerCustomerList struct {
	Data []providerCustomerResponse `json:"data"`
}

// EnsureCustomer returns an existing customer for the email or creates one
// tagged with the tenant id.
func (c *PaymentClient) EnsureCustomer(email, name string, tenantID uint) (string, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("limit", "1")

	var list providerCustomerList
	if err := c.do("GET", "/v1/customers?"+query.Encode(), nil, &list); err != nil {
		return "", err
	}
	if len(list.Data) > 0 {
		return list.Data[0].ID, nil
	}

	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)
	form.Set("metadata[tenant_id]", strconv.FormatUint(uint64(tenantID), 10))

	var created providerCustomerResponse
	if err := c.do("POST", "/v1/customers", form, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// CreateCheckoutSession opens a provider-hosted subscription checkout. The
// tenant id rides along as metadata and comes back on the checkout-completed
// event.
func (c *PaymentClient) CreateCheckoutSession(p CheckoutParams) (*Session, error) {
	form := url.Values{}
	form.Set("customer", p.CustomerID)
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", p.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("metadata[tenant_id]", strconv.FormatUint(uint64(p.TenantID), 10))

	var session Session
	if err := c.do("POST", "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreatePortalSession opens the provider's self-service billing portal.
func (c *PaymentClient) CreatePortalSession(customerID, returnURL string) (*Session, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", returnURL)

	var session Session
	if err := c.do("POST", "/v1/billing_portal/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *PaymentClient) do(method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("building provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", apperr.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading provider response: %w", apperr.ErrUpstreamUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned %d: %w", resp.StatusCode, apperr.ErrUpstreamUnavailable)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding provider response: %w", apperr.ErrUpstreamUnavailable)
		}
	}
	return nil
}
