package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
)

const (
	SandboxBaseURL    = "https://sandbox.cashfree.com"
	ProductionBaseURL = "https://api.cashfree.com"
	DefaultAPIVersion = "2023-08-01"

	currencyINR      = "INR"
	placeholderEmail = "noemail@example.com"
	maxResponseBytes = 1 << 20
	defaultTimeout   = 15 * time.Second
)

// ErrMissingCredentials indicates that the client was configured without an app id or secret.
var ErrMissingCredentials = errors.New("cashfree: client id and secret are required")

// Options configures the Cashfree PG client.
type Options struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	APIVersion     string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client talks to the Cashfree PG REST API. It keeps no local state about
// orders and implements domain.Gateway.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	apiVersion string
	httpClient *http.Client
	logger     *infra.Logger
}

var _ domain.Gateway = (*Client)(nil)

// NewClient constructs a client with defaults for missing options.
func NewClient(opts Options) (*Client, error) {
	clientID := strings.TrimSpace(opts.ClientID)
	secret := strings.TrimSpace(opts.ClientSecret)
	if clientID == "" || secret == "" {
		return nil, ErrMissingCredentials
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = SandboxBaseURL
	}
	version := strings.TrimSpace(opts.APIVersion)
	if version == "" {
		version = DefaultAPIVersion
	}
	logger := opts.Logger
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &Client{
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
		apiVersion: version,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type customerDetails struct {
	CustomerID    string `json:"customer_id,omitempty"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
}

type createOrderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     json.Number     `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	CustomerDetails customerDetails `json:"customer_details"`
	OrderMeta       orderMeta       `json:"order_meta"`
	OrderNote       string          `json:"order_note,omitempty"`
	OrderExpiryTime string          `json:"order_expiry_time,omitempty"`
}

type orderResponse struct {
	OrderID          string `json:"order_id"`
	OrderStatus      string `json:"order_status"`
	PaymentLink      string `json:"payment_link"`
	PaymentSessionID string `json:"payment_session_id"`
}

type paymentResponse struct {
	CFPaymentID   json.Number `json:"cf_payment_id"`
	OrderID       string      `json:"order_id"`
	PaymentStatus string      `json:"payment_status"`
}

type subscriptionDetails struct {
	IntervalType  string `json:"interval_type"`
	IntervalCount int    `json:"interval_count"`
	TotalCount    int    `json:"total_count"`
}

type createSubscriptionRequest struct {
	SubscriptionID      string              `json:"subscription_id"`
	PlanID              string              `json:"plan_id"`
	CustomerDetails     customerDetails     `json:"customer_details"`
	SubscriptionDetails subscriptionDetails `json:"subscription_details"`
	OrderMeta           orderMeta           `json:"order_meta"`
}

type subscriptionResponse struct {
	SubscriptionID     string `json:"subscription_id"`
	CFSubscriptionID   string `json:"cf_subscription_id"`
	SubscriptionStatus string `json:"subscription_status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func customer(c domain.Customer) customerDetails {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		email = placeholderEmail
	}
	return customerDetails{
		CustomerName:  strings.TrimSpace(c.Name),
		CustomerEmail: email,
		CustomerPhone: strings.TrimSpace(c.Phone),
	}
}

// CreateOrder registers a checkout order and returns its payment link.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, errors.New("cashfree: order id is required")
	}
	details := customer(req.Customer)
	details.CustomerID = req.OrderID
	payload := createOrderRequest{
		OrderID:         req.OrderID,
		OrderAmount:     json.Number(req.Amount.StringFixed(2)),
		OrderCurrency:   currencyINR,
		CustomerDetails: details,
		OrderMeta:       orderMeta{ReturnURL: req.ReturnURL},
		OrderNote:       req.Note,
	}
	if !req.ExpiresAt.IsZero() {
		payload.OrderExpiryTime = req.ExpiresAt.UTC().Format(time.RFC3339)
	}
	var out orderResponse
	if err := c.do(ctx, "create order", http.MethodPost, "/pg/orders", payload, &out); err != nil {
		return nil, err
	}
	if out.OrderID == "" {
		out.OrderID = req.OrderID
	}
	return &domain.Order{
		GatewayOrderID:   out.OrderID,
		PaymentLink:      out.PaymentLink,
		PaymentSessionID: out.PaymentSessionID,
	}, nil
}

// GetOrder returns the gateway's order status.
func (c *Client) GetOrder(ctx context.Context, orderID string) (domain.OrderState, error) {
	var out orderResponse
	path := "/pg/orders/" + url.PathEscape(orderID)
	if err := c.do(ctx, "get order", http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return domain.OrderState(strings.ToUpper(strings.TrimSpace(out.OrderStatus))), nil
}

// VerifyPayment fetches one payment attempt of an order.
func (c *Client) VerifyPayment(ctx context.Context, orderID, paymentID string) (*domain.PaymentVerification, error) {
	var out paymentResponse
	path := "/pg/orders/" + url.PathEscape(orderID) + "/payments/" + url.PathEscape(paymentID)
	if err := c.do(ctx, "verify payment", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	id := out.CFPaymentID.String()
	if id == "" {
		id = paymentID
	}
	return &domain.PaymentVerification{
		OrderID:       orderID,
		PaymentID:     id,
		PaymentStatus: out.PaymentStatus,
	}, nil
}

// CreateSubscription creates the recurring mandate for a monthly tier. The
// subscription id is caller-chosen so retries hit the same gateway record.
func (c *Client) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (string, error) {
	interval := req.IntervalType
	if interval == "" {
		interval = domain.IntervalMonthly
	}
	count := req.IntervalCount
	if count <= 0 {
		count = 1
	}
	payload := createSubscriptionRequest{
		SubscriptionID:  req.SubscriptionID,
		PlanID:          "plan_" + strings.ToLower(interval) + "_" + req.Amount.String(),
		CustomerDetails: customer(req.Customer),
		SubscriptionDetails: subscriptionDetails{
			IntervalType:  interval,
			IntervalCount: count,
		},
		OrderMeta: orderMeta{ReturnURL: req.ReturnURL},
	}
	var out subscriptionResponse
	if err := c.do(ctx, "create subscription", http.MethodPost, "/pg/subscriptions", payload, &out); err != nil {
		return "", err
	}
	switch {
	case out.SubscriptionID != "":
		return out.SubscriptionID, nil
	case out.CFSubscriptionID != "":
		return out.CFSubscriptionID, nil
	default:
		return req.SubscriptionID, nil
	}
}

// CancelSubscription stops future charges of a subscription.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	path := "/pg/subscriptions/" + url.PathEscape(subscriptionID) + "/cancel"
	return c.do(ctx, "cancel subscription", http.MethodPost, path, struct{}{}, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("cashfree: %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("cashfree: %s: build request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-client-secret", c.secret)
	req.Header.Set("x-api-version", c.apiVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("cashfree call")

	if resp.StatusCode >= 300 {
		var detail errorResponse
		_ = json.Unmarshal(raw, &detail)
		if retriableStatus(resp.StatusCode) {
			msg := detail.Message
			if msg == "" {
				msg = strings.TrimSpace(string(raw))
			}
			return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
		}
		return &BusinessError{Op: op, StatusCode: resp.StatusCode, Code: detail.Code, Message: detail.Message}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
