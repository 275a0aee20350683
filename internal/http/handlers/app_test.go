package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorsupport/internal/adapter/repo"
	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
	"creatorsupport/internal/middleware"
	"creatorsupport/internal/payments"
	"creatorsupport/internal/providers/cashfree"
)

var fixedNow = time.UnixMilli(1700000000000).UTC()

type stubGateway struct {
	mu sync.Mutex

	orderErr     error
	verifyStatus string
	verifyErr    error
	subErr       error
	cancelErr    error
	cancelled    []string
}

func (g *stubGateway) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	return &domain.Order{
		GatewayOrderID:   req.OrderID,
		PaymentLink:      "https://pay.example/" + req.OrderID,
		PaymentSessionID: "sess_" + req.OrderID,
	}, nil
}

func (g *stubGateway) GetOrder(ctx context.Context, orderID string) (domain.OrderState, error) {
	return domain.OrderActive, nil
}

func (g *stubGateway) VerifyPayment(ctx context.Context, orderID, paymentID string) (*domain.PaymentVerification, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return &domain.PaymentVerification{OrderID: orderID, PaymentID: paymentID, PaymentStatus: g.verifyStatus}, nil
}

func (g *stubGateway) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (string, error) {
	if g.subErr != nil {
		return "", g.subErr
	}
	return "cf_" + req.SubscriptionID, nil
}

func (g *stubGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancelled = append(g.cancelled, subscriptionID)
	return nil
}

type testEnv struct {
	now     time.Time
	store   *repo.MemoryLedger
	gateway *stubGateway
	app     *App
	router  http.Handler
}

func newTestEnv(t *testing.T, webhook WebhookOptions) *testEnv {
	t.Helper()
	store := repo.NewMemoryLedger()
	store.SeedTier(domain.Tier{ID: 3, CreatorID: 7, Type: domain.SupportMonthly, Amount: decimal.NewFromInt(500), Title: "Monthly Gold", IsActive: true})
	store.SeedTier(domain.Tier{ID: 4, CreatorID: 7, Type: domain.SupportOneTime, Amount: decimal.NewFromInt(100), Title: "Chai", IsActive: true})
	store.SeedTier(domain.Tier{ID: 5, CreatorID: 7, Type: domain.SupportOneTime, Amount: decimal.NewFromInt(50), Title: "Retired", IsActive: false})

	env := &testEnv{now: fixedNow, store: store, gateway: &stubGateway{}}
	settings := payments.Settings{
		AppURL:                 "https://app.example",
		GatewayTimeout:         time.Second,
		SetupMaxAttempts:       3,
		WebhookNotFoundRetries: 1,
		WebhookNotFoundBackoff: time.Millisecond,
		OrderGraceWindow:       15 * time.Minute,
		Now:                    func() time.Time { return env.now },
	}
	app := NewApp(store, env.gateway, settings, infra.NopLogger(), webhook)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Get("/v1/healthz", app.Health)
	r.Post("/v1/payments", app.PaymentsCreate)
	r.Get("/v1/payments/{orderId}", app.PaymentsGet)
	r.Post("/v1/payments/verify", app.PaymentsVerify)
	r.Post("/v1/payments/webhook", app.PaymentsWebhook)
	r.Get("/v1/creators/{creatorId}/supporters", app.CreatorSupporters)
	r.Get("/v1/creators/{creatorId}/analytics", app.CreatorAnalytics)
	r.Get("/v1/admin/subscription-setups", app.AdminListSetups)
	r.Post("/v1/admin/subscription-setups/{paymentId}/retry", app.AdminRetrySetup)
	r.Post("/v1/admin/subscriptions/{id}/cancel", app.AdminCancelSubscription)

	env.app = app
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	case []byte:
		buf.Write(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	env, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %s", rec.Body.String())
	return env["code"].(string)
}

func (e *testEnv) createPayment(t *testing.T, tierID int64) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/payments", map[string]any{
		"creatorId":     7,
		"tierId":        tierID,
		"supporterName": "Asha",
		"phone":         "9876543210",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody(t, rec)["orderId"].(string)
}

func TestPaymentsCreate(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	rec := env.do(t, http.MethodPost, "/v1/payments", map[string]any{
		"creatorId":     7,
		"tierId":        3,
		"supporterName": "Asha",
		"email":         "asha@example.com",
		"phone":         "9876543210",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	orderID := body["orderId"].(string)
	assert.True(t, strings.HasPrefix(orderID, "order_7_3_1700000000000_"), orderID)
	assert.Equal(t, "https://pay.example/"+orderID, body["paymentLink"])
	assert.Equal(t, "sess_"+orderID, body["paymentSessionId"])
	assert.Equal(t, float64(500), body["amount"])

	get := env.do(t, http.MethodGet, "/v1/payments/"+orderID, nil)
	require.Equal(t, http.StatusOK, get.Code)
	view := decodeBody(t, get)
	assert.Equal(t, "pending", view["status"])
	assert.Equal(t, "monthly", view["type"])
}

func TestPaymentsCreateErrors(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	tests := []struct {
		name string
		body any
		want int
		code string
	}{
		{name: "malformed json", body: "{", want: http.StatusBadRequest, code: "invalid_request"},
		{name: "missing name", body: map[string]any{"creatorId": 7, "tierId": 3, "phone": "9876543210"}, want: http.StatusBadRequest, code: "invalid_request"},
		{name: "short phone", body: map[string]any{"creatorId": 7, "tierId": 3, "supporterName": "Asha", "phone": "123"}, want: http.StatusBadRequest, code: "invalid_request"},
		{name: "inactive tier", body: map[string]any{"creatorId": 7, "tierId": 5, "supporterName": "Asha", "phone": "9876543210"}, want: http.StatusBadRequest, code: "invalid_request"},
		{name: "unknown tier", body: map[string]any{"creatorId": 7, "tierId": 99, "supporterName": "Asha", "phone": "9876543210"}, want: http.StatusNotFound, code: "not_found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/payments", tc.body)
			require.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestPaymentsCreateGatewayErrors(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	env.gateway.orderErr = &cashfree.TransportError{Op: "create order", Err: context.DeadlineExceeded}
	rec := env.do(t, http.MethodPost, "/v1/payments", map[string]any{
		"creatorId": 7, "tierId": 4, "supporterName": "Asha", "phone": "9876543210",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "gateway_unavailable", errorCode(t, rec))

	env.gateway.orderErr = &cashfree.BusinessError{Op: "create order", StatusCode: http.StatusBadRequest, Message: "order_amount invalid"}
	rec = env.do(t, http.MethodPost, "/v1/payments", map[string]any{
		"creatorId": 7, "tierId": 4, "supporterName": "Asha", "phone": "9876543210",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotContains(t, rec.Body.String(), "order_amount invalid")
}

func TestErrorMessageLocalized(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	handler := middleware.I18N("en", nil)(env.router)
	req := httptest.NewRequest(http.MethodGet, "/v1/payments/order_missing", nil)
	req.Header.Set("Accept-Language", "hi-IN")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, "आप जो ढूँढ रहे थे वह हमें नहीं मिला।", envelope["message"])
}

func TestPaymentsVerifyMonthlySuccess(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	orderID := env.createPayment(t, 3)
	env.gateway.verifyStatus = "SUCCESS"

	rec := env.do(t, http.MethodPost, "/v1/payments/verify", map[string]string{"orderId": orderID, "paymentId": "cf_pay_1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "applied", body["state"])
	sub := body["subscription"].(map[string]any)
	assert.Equal(t, "active", sub["status"])
	assert.Equal(t, "cf_sub_"+orderID, sub["gatewaySubscriptionId"])

	nPayments, entries, subs, _ := env.store.Counts()
	assert.Equal(t, 1, nPayments)
	assert.Equal(t, 1, entries)
	assert.Equal(t, 1, subs)

	again := env.do(t, http.MethodPost, "/v1/payments/verify", map[string]string{"orderId": orderID, "paymentId": "cf_pay_1"})
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "already_reconciled", decodeBody(t, again)["state"])
}

func TestPaymentsVerifyErrors(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	rec := env.do(t, http.MethodPost, "/v1/payments/verify", map[string]string{"orderId": "order_unknown", "paymentId": "p"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/payments/verify", map[string]string{"orderId": "order_unknown"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	orderID := env.createPayment(t, 4)
	env.gateway.verifyStatus = "PENDING"
	rec = env.do(t, http.MethodPost, "/v1/payments/verify", map[string]string{"orderId": orderID, "paymentId": "p"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decodeBody(t, rec)["status"])
}

func TestPaymentsVerifySetupFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	orderID := env.createPayment(t, 3)
	env.gateway.verifyStatus = "SUCCESS"
	env.gateway.subErr = &cashfree.TransportError{Op: "create subscription", Err: context.DeadlineExceeded}

	rec := env.do(t, http.MethodPost, "/v1/payments/verify", map[string]string{"orderId": orderID, "paymentId": "p"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, true, body["subscriptionPending"])
	assert.NotContains(t, body, "subscription")
}

func TestHealthReportsLedgerReachability(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})

	rec := env.do(t, http.MethodGet, "/v1/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	var pingErr error
	env.app.LedgerPing = func(ctx context.Context) error { return pingErr }
	rec = env.do(t, http.MethodGet, "/v1/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","ledger":"ok"}`, rec.Body.String())

	pingErr = context.DeadlineExceeded
	rec = env.do(t, http.MethodGet, "/v1/healthz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","ledger":"unreachable"}`, rec.Body.String())
}

func TestPaymentsWebhook(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	orderID := env.createPayment(t, 4)

	rec := env.do(t, http.MethodPost, "/v1/payments/webhook", `{"data":{"order":{"order_id":"`+orderID+`"},"payment":{"payment_status":"SUCCESS"}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "applied", decodeBody(t, rec)["state"])

	rec = env.do(t, http.MethodPost, "/v1/payments/webhook", `{"order_id":"`+orderID+`","payment_status":"SUCCESS"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_reconciled", decodeBody(t, rec)["state"])

	_, entries, _, _ := env.store.Counts()
	assert.Equal(t, 1, entries)
}

func TestPaymentsWebhookEdgeCases(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	orderID := env.createPayment(t, 4)

	tests := []struct {
		name  string
		body  string
		want  int
		state string
	}{
		{name: "malformed", body: `{"order_id":`, want: http.StatusBadRequest},
		{name: "missing order id", body: `{"payment_status":"SUCCESS"}`, want: http.StatusBadRequest},
		{name: "unrecognized status", body: `{"order_id":"` + orderID + `","payment_status":"USER_DROPPED"}`, want: http.StatusOK, state: "ignored"},
		{name: "foreign order", body: `{"order_id":"ext-123","payment_status":"SUCCESS"}`, want: http.StatusOK, state: "ignored"},
		{name: "fresh order non-terminal status", body: `{"order_id":"order_7_3_1700000000000_aaaaaaaaaaaa","payment_status":"USER_DROPPED"}`, want: http.StatusOK, state: "ignored"},
		{name: "fresh order not recorded", body: `{"orderId":"order_7_3_1700000000000_abcdefabcdef","paymentStatus":"SUCCESS"}`, want: http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/payments/webhook", tc.body)
			require.Equal(t, tc.want, rec.Code, rec.Body.String())
			if tc.state != "" {
				assert.Equal(t, tc.state, decodeBody(t, rec)["state"])
			}
		})
	}

	payment, err := env.store.GetPaymentByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, payment.Status)
}

func TestPaymentsWebhookSignature(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{Secret: "whsec", VerifySignature: true})
	orderID := env.createPayment(t, 4)
	body := []byte(`{"order_id":"` + orderID + `","payment_status":"FAILED"}`)

	rec := env.do(t, http.MethodPost, "/v1/payments/webhook", body,
		cashfree.HeaderTimestamp, "1700000000", cashfree.HeaderSignature, "bogus")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	sig := cashfree.Sign("whsec", "1700000000", body)
	rec = env.do(t, http.MethodPost, "/v1/payments/webhook", body,
		cashfree.HeaderTimestamp, "1700000000", cashfree.HeaderSignature, sig)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "applied", decodeBody(t, rec)["state"])
}

func TestCreatorSupportersAndAnalytics(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	env.gateway.verifyStatus = "SUCCESS"
	for _, tier := range []int64{3, 4} {
		orderID := env.createPayment(t, tier)
		rec := env.do(t, http.MethodPost, "/v1/payments/verify", map[string]string{"orderId": orderID, "paymentId": "p"})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/v1/payments", map[string]any{
		"creatorId": 7, "tierId": 4, "supporterName": "Ravi", "isAnonymous": true, "phone": "9876543210",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	anon := decodeBody(t, rec)["orderId"].(string)
	rec = env.do(t, http.MethodPost, "/v1/payments/webhook", `{"order_id":"`+anon+`","payment_status":"SUCCESS"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/creators/7/supporters?limit=500", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 3)
	names := map[string]int{}
	for _, item := range items {
		names[item.(map[string]any)["name"].(string)]++
	}
	assert.Equal(t, 2, names["Asha"])
	assert.Equal(t, 1, names[domain.AnonymousName])

	rec = env.do(t, http.MethodGet, "/v1/creators/7/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)
	assert.Equal(t, float64(700), stats["totalRevenue"])
	assert.Equal(t, float64(500), stats["monthlyRevenue"])
	assert.EqualValues(t, 3, stats["successfulPayments"])
	assert.EqualValues(t, 1, stats["activeSubscriptions"])

	rec = env.do(t, http.MethodGet, "/v1/creators/abc/supporters", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodGet, "/v1/creators/7/supporters?limit=-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminSetupRetryAndCancel(t *testing.T) {
	env := newTestEnv(t, WebhookOptions{})
	orderID := env.createPayment(t, 3)
	env.gateway.verifyStatus = "SUCCESS"
	env.gateway.subErr = &cashfree.TransportError{Op: "create subscription", Err: context.DeadlineExceeded}
	rec := env.do(t, http.MethodPost, "/v1/payments/verify", map[string]string{"orderId": orderID, "paymentId": "p"})
	require.Equal(t, http.StatusOK, rec.Code)

	payment, err := env.store.GetPaymentByOrderID(context.Background(), orderID)
	require.NoError(t, err)

	rec = env.do(t, http.MethodGet, "/v1/admin/subscription-setups?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, items[0].(map[string]any)["attempts"])

	env.gateway.subErr = nil
	retryPath := "/v1/admin/subscription-setups/" + itoa(payment.ID) + "/retry"
	rec = env.do(t, http.MethodPost, retryPath, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "setup_in_progress", errorCode(t, rec))

	env.now = env.now.Add(2 * time.Minute)
	rec = env.do(t, http.MethodPost, retryPath, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["retryFailed"])
	assert.Equal(t, "done", body["setup"].(map[string]any)["status"])
	sub := body["subscription"].(map[string]any)
	subID := int64(sub["id"].(float64))

	rec = env.do(t, http.MethodPost, "/v1/admin/subscriptions/"+itoa(subID)+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", decodeBody(t, rec)["status"])
	assert.Equal(t, []string{"cf_sub_" + orderID}, env.gateway.cancelled)

	rec = env.do(t, http.MethodPost, "/v1/admin/subscriptions/999/cancel", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodPost, "/v1/admin/subscription-setups/999/retry", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/v1/admin/subscription-setups?status=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: domain.Invalid("phone", "too short"), want: http.StatusBadRequest},
		{err: domain.ErrTierNotFound, want: http.StatusNotFound},
		{err: domain.ErrDuplicateOrder, want: http.StatusConflict},
		{err: domain.ErrSetupInProgress, want: http.StatusConflict},
		{err: domain.ErrOrderNotYetRecorded, want: http.StatusServiceUnavailable},
		{err: &cashfree.TransportError{Op: "x", Err: context.Canceled}, want: http.StatusServiceUnavailable},
		{err: &cashfree.BusinessError{Op: "x", StatusCode: http.StatusNotFound}, want: http.StatusUnprocessableEntity},
		{err: domain.ErrUnauthorized, want: http.StatusUnauthorized},
		{err: context.Canceled, want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		status, _, _ := classify(tc.err)
		assert.Equal(t, tc.want, status, "%v", tc.err)
	}
}

func itoa(n int64) string {
	return decimal.NewFromInt(n).String()
}
