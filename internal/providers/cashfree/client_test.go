package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"creatorsupport/internal/domain"
)

type responseStub struct {
	status int
	body   string
}

type captureTransport struct {
	responses map[string]responseStub
	err       error

	lastReq  *http.Request
	lastBody []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.lastReq = req
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	if c.err != nil {
		return nil, c.err
	}
	stub, ok := c.responses[req.Method+" "+req.URL.Path]
	if !ok {
		stub = responseStub{status: http.StatusNotFound, body: `{"code":"order_not_found","message":"order not found"}`}
	}
	return &http.Response{
		StatusCode: stub.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(stub.body))),
		Request:    req,
	}, nil
}

func newTestClient(t *testing.T, transport *captureTransport) *Client {
	t.Helper()
	client, err := NewClient(Options{
		BaseURL:      "https://sandbox.example.test/",
		ClientID:     "app-123",
		ClientSecret: "secret",
		HTTPClient:   &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Options{ClientID: "app"}); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestCreateOrderPayload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{
		"POST /pg/orders": {status: http.StatusOK, body: `{"order_id":"order_7_3_1700000000000","payment_link":"https://pay.example/abc","payment_session_id":"sess_1"}`},
	}}
	client := newTestClient(t, transport)

	order, err := client.CreateOrder(context.Background(), domain.OrderRequest{
		OrderID:   "order_7_3_1700000000000",
		Amount:    decimal.NewFromInt(500),
		Customer:  domain.Customer{Name: "Asha", Phone: "9876543210"},
		ReturnURL: "https://app.example/support/success?order_id=order_7_3_1700000000000",
		Note:      "Support for Gold",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.PaymentLink != "https://pay.example/abc" || order.PaymentSessionID != "sess_1" {
		t.Fatalf("unexpected order: %+v", order)
	}
	if got := transport.lastReq.Header.Get("x-client-id"); got != "app-123" {
		t.Fatalf("x-client-id = %q", got)
	}
	if got := transport.lastReq.Header.Get("x-api-version"); got != DefaultAPIVersion {
		t.Fatalf("x-api-version = %q", got)
	}

	var sent map[string]any
	if err := json.Unmarshal(transport.lastBody, &sent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if sent["order_amount"] != 500.0 {
		t.Fatalf("order_amount = %#v, want number 500", sent["order_amount"])
	}
	if sent["order_currency"] != "INR" {
		t.Fatalf("order_currency = %#v", sent["order_currency"])
	}
	details := sent["customer_details"].(map[string]any)
	if details["customer_email"] != placeholderEmail {
		t.Fatalf("customer_email = %#v, want placeholder", details["customer_email"])
	}
}

func TestVerifyPayment(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{
		"GET /pg/orders/order_1/payments/pay_9": {status: http.StatusOK, body: `{"cf_payment_id":12345,"order_id":"order_1","payment_status":"SUCCESS"}`},
	}}
	client := newTestClient(t, transport)

	got, err := client.VerifyPayment(context.Background(), "order_1", "pay_9")
	if err != nil {
		t.Fatalf("VerifyPayment error: %v", err)
	}
	if got.PaymentStatus != "SUCCESS" || got.PaymentID != "12345" {
		t.Fatalf("unexpected verification: %+v", got)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	client := newTestClient(t, &captureTransport{responses: map[string]responseStub{}})

	_, err := client.GetOrder(context.Background(), "order_missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !errors.Is(err, domain.ErrGatewayOrderNotFound) || !errors.Is(err, domain.ErrGatewayBusiness) {
		t.Fatalf("expected business not-found error, got %v", err)
	}
	if errors.Is(err, domain.ErrGatewayTransport) {
		t.Fatal("404 must not be a transport error")
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name      string
		stub      responseStub
		transport error
		wantTrans bool
	}{
		{name: "server error", stub: responseStub{status: http.StatusBadGateway, body: `oops`}, wantTrans: true},
		{name: "rate limited", stub: responseStub{status: http.StatusTooManyRequests, body: `{}`}, wantTrans: true},
		{name: "network", transport: errors.New("connection refused"), wantTrans: true},
		{name: "bad json", stub: responseStub{status: http.StatusOK, body: `{"order_status":`}, wantTrans: true},
		{name: "rejected", stub: responseStub{status: http.StatusBadRequest, body: `{"code":"order_amount_invalid","message":"amount invalid"}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &captureTransport{
				responses: map[string]responseStub{"GET /pg/orders/order_1": tc.stub},
				err:       tc.transport,
			}
			client := newTestClient(t, transport)
			_, err := client.GetOrder(context.Background(), "order_1")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, domain.ErrGatewayTransport); got != tc.wantTrans {
				t.Fatalf("transport = %v, want %v (err %v)", got, tc.wantTrans, err)
			}
			if got := errors.Is(err, domain.ErrGatewayBusiness); got == tc.wantTrans {
				t.Fatalf("business = %v, want %v (err %v)", got, !tc.wantTrans, err)
			}
		})
	}
}

func TestCreateSubscriptionPayload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{
		"POST /pg/subscriptions": {status: http.StatusOK, body: `{"subscription_id":"sub_order_1","subscription_status":"INITIALIZED"}`},
	}}
	client := newTestClient(t, transport)

	id, err := client.CreateSubscription(context.Background(), domain.SubscriptionRequest{
		SubscriptionID: "sub_order_1",
		Amount:         decimal.NewFromInt(500),
		IntervalType:   domain.IntervalMonthly,
		IntervalCount:  1,
		Customer:       domain.Customer{Name: "Asha", Email: "asha@example.com", Phone: "9876543210"},
	})
	if err != nil {
		t.Fatalf("CreateSubscription error: %v", err)
	}
	if id != "sub_order_1" {
		t.Fatalf("id = %q", id)
	}
	var sent createSubscriptionRequest
	if err := json.Unmarshal(transport.lastBody, &sent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if sent.PlanID != "plan_monthly_500" {
		t.Fatalf("plan_id = %q", sent.PlanID)
	}
	if sent.SubscriptionDetails.IntervalCount != 1 || sent.SubscriptionDetails.TotalCount != 0 {
		t.Fatalf("unexpected details: %+v", sent.SubscriptionDetails)
	}
}

func TestCancelSubscription(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{
		"POST /pg/subscriptions/sub_1/cancel": {status: http.StatusOK, body: `{"subscription_status":"CANCELLED"}`},
	}}
	client := newTestClient(t, transport)
	if err := client.CancelSubscription(context.Background(), "sub_1"); err != nil {
		t.Fatalf("CancelSubscription error: %v", err)
	}
}
