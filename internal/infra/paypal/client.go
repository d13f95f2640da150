package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmarchuk/assetmarket/internal/infra/httpclient"
)

const defaultTimeout = 15 * time.Second

// tokenSkew is subtracted from the reported expiry so a token is never used
// right at its boundary.
const tokenSkew = 30 * time.Second

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	ReturnURL    string
	CancelURL    string
	Timeout      time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

type Order struct {
	ID          string
	Status      string
	ApprovalURL string
}

type CaptureResult struct {
	OrderID   string
	CaptureID string
	Status    string
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("paypal base url is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("paypal credentials are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		cfg:  cfg,
		http: httpclient.New(timeout),
		now:  time.Now,
	}, nil
}

// CreateOrder creates a gateway order for a single fixed-price item and
// returns the approval link the buyer must visit.
func (c *Client) CreateOrder(ctx context.Context, amountCents int64, currency, description string) (Order, error) {
	if amountCents <= 0 {
		return Order{}, fmt.Errorf("invalid order amount: %d", amountCents)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"description": strings.TrimSpace(description),
				"amount": map[string]any{
					"currency_code": currency,
					"value":         formatAmount(amountCents),
				},
			},
		},
		"application_context": map[string]any{
			"return_url": c.cfg.ReturnURL,
			"cancel_url": c.cfg.CancelURL,
		},
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Links  []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", body, &resp); err != nil {
		return Order{}, fmt.Errorf("create paypal order: %w", err)
	}
	if strings.TrimSpace(resp.ID) == "" {
		return Order{}, fmt.Errorf("paypal order response missing id")
	}

	order := Order{ID: resp.ID, Status: resp.Status}
	for _, link := range resp.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			order.ApprovalURL = link.Href
			break
		}
	}
	if order.ApprovalURL == "" {
		return Order{}, fmt.Errorf("paypal order %s has no approval link", resp.ID)
	}

	return order, nil
}

// CaptureOrder finalizes payment for an approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (CaptureResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return CaptureResult{}, fmt.Errorf("order id is required")
	}

	var resp struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]any{}, &resp); err != nil {
		return CaptureResult{}, fmt.Errorf("capture paypal order: %w", err)
	}

	result := CaptureResult{OrderID: resp.ID, Status: resp.Status}
	for _, unit := range resp.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			result.CaptureID = capture.ID
			break
		}
	}

	return result, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, target any) error {
	token, err := c.accessTokenValue(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call paypal api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected paypal status %d for %s %s", resp.StatusCode, method, path)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decode paypal response: %w", err)
		}
	}

	return nil
}

func (c *Client) accessTokenValue(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request paypal access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected paypal token status: %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode paypal token response: %w", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return "", fmt.Errorf("paypal token response missing access_token")
	}

	c.accessToken = payload.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(payload.ExpiresIn)*time.Second - tokenSkew)

	return c.accessToken, nil
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
