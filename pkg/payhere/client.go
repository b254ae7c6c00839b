package payhere

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/archfoundry/archcomp-backend/pkg/config"
)

const (
	responseBodyReadLimit int64 = 1 << 20

	// StatusSuccess is the only callback status code that confirms money
	// moved. Everything else non-empty is a definitive failure state.
	StatusSuccess    = "2"
	StatusPending    = "0"
	StatusCancelled  = "-1"
	StatusFailed     = "-2"
	StatusChargeback = "-3"
)

var (
	errMerchantIDRequired     = errors.New("payhere merchant id is required")
	errMerchantSecretRequired = errors.New("payhere merchant secret is required")
	errAppCredentialsRequired = errors.New("payhere app id and app secret are required for the retrieval API")
)

// Client signs checkout payloads, verifies notify callbacks and talks to the
// merchant retrieval API. The hash scheme (upper-hex MD5 over fixed field
// order) is PayHere's wire contract and must match it byte for byte.
type Client struct {
	httpClient     *http.Client
	merchantID     string
	merchantSecret string
	checkoutURL    string
	apiBaseURL     string
	appID          string
	appSecret      string
	returnURL      string
	cancelURL      string
	notifyURL      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a PayHere client from configuration.
func NewClient(cfg config.PayHereConfig, opts ...Option) (*Client, error) {
	merchantID := strings.TrimSpace(cfg.MerchantID)
	if merchantID == "" {
		return nil, errMerchantIDRequired
	}
	secret := strings.TrimSpace(cfg.MerchantSecret)
	if secret == "" {
		return nil, errMerchantSecretRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		httpClient:     &http.Client{Timeout: timeout},
		merchantID:     merchantID,
		merchantSecret: secret,
		checkoutURL:    strings.TrimSpace(cfg.CheckoutURL),
		apiBaseURL:     strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/"),
		appID:          strings.TrimSpace(cfg.AppID),
		appSecret:      strings.TrimSpace(cfg.AppSecret),
		returnURL:      strings.TrimSpace(cfg.ReturnURL),
		cancelURL:      strings.TrimSpace(cfg.CancelURL),
		notifyURL:      strings.TrimSpace(cfg.NotifyURL),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// MerchantID exposes the configured merchant identifier.
func (c *Client) MerchantID() string {
	return c.merchantID
}

// CheckoutURL exposes the hosted checkout endpoint the browser posts to.
func (c *Client) CheckoutURL() string {
	return c.checkoutURL
}

// BuildCheckout assembles the signed form fields for the hosted checkout
// page. The hash covers merchant id, order id, formatted amount, currency and
// the upper-hex MD5 of the merchant secret, in that order.
func (c *Client) BuildCheckout(req CheckoutRequest) (*CheckoutPayload, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	amount := FormatAmount(req.AmountCents)
	fields := map[string]string{
		"merchant_id": c.merchantID,
		"return_url":  c.returnURL,
		"cancel_url":  c.cancelURL,
		"notify_url":  c.notifyURL,
		"order_id":    req.OrderID,
		"items":       req.Items,
		"currency":    req.Currency,
		"amount":      amount,
		"first_name":  req.Customer.FirstName,
		"last_name":   req.Customer.LastName,
		"email":       req.Customer.Email,
		"phone":       req.Customer.Phone,
		"address":     req.Customer.Address,
		"city":        req.Customer.City,
		"country":     req.Customer.Country,
		"hash":        c.checkoutHash(req.OrderID, amount, req.Currency),
	}

	return &CheckoutPayload{
		URL:    c.checkoutURL,
		Method: http.MethodPost,
		Fields: fields,
	}, nil
}

// VerifyNotify recomputes the callback signature over the callback's own
// fields and compares it in constant time. A mismatch means the callback did
// not come from PayHere and must be dropped with no state change.
func (c *Client) VerifyNotify(n Notification) error {
	if n.MerchantID != c.merchantID {
		return fmt.Errorf("merchant id mismatch: %q", n.MerchantID)
	}
	expected := c.notifyHash(n.OrderID, n.PayHereAmount, n.PayHereCurrency, n.StatusCode)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToUpper(n.MD5Sig))) != 1 {
		return errors.New("md5sig verification failed")
	}
	return nil
}

func (c *Client) checkoutHash(orderID, amount, currency string) string {
	secretDigest := upperMD5(c.merchantSecret)
	return upperMD5(c.merchantID + orderID + amount + currency + secretDigest)
}

func (c *Client) notifyHash(orderID, amount, currency, statusCode string) string {
	secretDigest := upperMD5(c.merchantSecret)
	return upperMD5(c.merchantID + orderID + amount + currency + statusCode + secretDigest)
}

func upperMD5(value string) string {
	sum := md5.Sum([]byte(value))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// FormatAmount renders cents the way PayHere expects amounts: two decimal
// places, no thousands separators.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// SearchPayment queries the merchant retrieval API for the payments recorded
// against an order id. Used by reconciliation when the notify callback never
// arrived.
func (c *Client) SearchPayment(ctx context.Context, orderID string) ([]PaymentDetail, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New("order id is required")
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/merchant/v1/payment/search?order_id=%s", c.apiBaseURL, url.QueryEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return parsed.Data, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.appID == "" || c.appSecret == "" {
		return "", errAppCredentialsRequired
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	endpoint := c.apiBaseURL + "/merchant/v1/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.appID, c.appSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned %d", resp.StatusCode)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("token response missing access_token")
	}
	return parsed.AccessToken, nil
}
