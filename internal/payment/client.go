package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/johanandu/selfstoragejandu/pkg/config"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.stripe.com"

// Client is a minimal REST client for the payment processor. Only the
// calls the service needs are wrapped: subscription and customer reads for
// the reconciler and checkout-session creation for the checkout endpoint.
type Client struct {
	BaseURL    string
	SecretKey  string
	SuccessURL string
	CancelURL  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Subscription is the processor's view of a subscription.
type Subscription struct {
	ID               string
	Status           string
	CurrentPeriodEnd time.Time
}

// Customer is the processor's customer record, the identity source for
// profiles created from payment data.
type Customer struct {
	ID      string
	Email   string
	Name    string
	Phone   string
	Deleted bool
}

// CheckoutParams describes the subscription checkout session to create.
// UserID may be empty for renters who have not signed up yet.
type CheckoutParams struct {
	UnitID       uint
	UnitName     string
	PriceMonthly int64
	UserID       string
}

// NewClient builds a processor client with a bounded timeout.
func NewClient(cfg *config.StripeConfig, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		SecretKey:  cfg.SecretKey,
		SuccessURL: cfg.SuccessURL,
		CancelURL:  cfg.CancelURL,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Logger:     logger,
	}
}

// Subscription retrieves a subscription by its external id.
func (c *Client) Subscription(ctx context.Context, id string) (*Subscription, error) {
	var raw struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		CurrentPeriodEnd int64  `json:"current_period_end"`
	}
	if err := c.get(ctx, "/v1/subscriptions/"+url.PathEscape(id), &raw); err != nil {
		return nil, err
	}
	return &Subscription{
		ID:               raw.ID,
		Status:           raw.Status,
		CurrentPeriodEnd: time.Unix(raw.CurrentPeriodEnd, 0).UTC(),
	}, nil
}

// Customer retrieves a customer by id.
func (c *Client) Customer(ctx context.Context, id string) (*Customer, error) {
	var raw struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Deleted bool   `json:"deleted"`
	}
	if err := c.get(ctx, "/v1/customers/"+url.PathEscape(id), &raw); err != nil {
		return nil, err
	}
	return &Customer{
		ID:      raw.ID,
		Email:   raw.Email,
		Name:    raw.Name,
		Phone:   raw.Phone,
		Deleted: raw.Deleted,
	}, nil
}

// CreateCheckoutSession creates a subscription-mode checkout session for a
// unit and returns the hosted payment page URL. The unit id and the known
// user id ride along as metadata so the webhook reconciler can correlate
// the completed checkout back to a unit and profile.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	data := url.Values{}
	data.Set("mode", "subscription")
	data.Set("payment_method_types[0]", "card")
	data.Set("payment_method_types[1]", "p24")
	data.Set("line_items[0][price_data][currency]", "pln")
	data.Set("line_items[0][price_data][product_data][name]", "Wynajem "+params.UnitName)
	data.Set("line_items[0][price_data][product_data][description]", "Kontener magazynowy "+params.UnitName)
	data.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.PriceMonthly, 10))
	data.Set("line_items[0][price_data][recurring][interval]", "month")
	data.Set("line_items[0][quantity]", "1")
	data.Set("success_url", c.SuccessURL)
	data.Set("cancel_url", c.CancelURL)
	data.Set("metadata[unitId]", strconv.FormatUint(uint64(params.UnitID), 10))
	data.Set("metadata[userId]", params.UserID)
	data.Set("customer_creation", "always")
	data.Set("locale", "pl")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/checkout/sessions",
		strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var session struct {
		URL string `json:"url"`
	}
	if err := c.do(req, &session); err != nil {
		return "", err
	}
	if session.URL == "" {
		return "", fmt.Errorf("checkout session has no redirect url")
	}
	return session.URL, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("payment API response read failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &apiErr)
		c.Logger.Error("Payment API error",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Error.Message))
		return fmt.Errorf("payment API error: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("payment API response decode failed: %w", err)
		}
	}
	return nil
}
