package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"creatorsupport/internal/adapter/repo"
	"creatorsupport/internal/domain"
)

var fixedNow = time.UnixMilli(1700000000000).UTC()

type fakeGateway struct {
	mu sync.Mutex

	orderErr     error
	verifyStatus string
	verifyErr    error
	orderStates  map[string]domain.OrderState
	orderErrs    map[string]error
	subFailures  int
	subErr       error
	subID        string
	cancelErr    error

	orders      []domain.OrderRequest
	verifyCalls int
	subCalls    int
	subRequests []domain.SubscriptionRequest
	cancelled   []string
}

func (g *fakeGateway) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = append(g.orders, req)
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	return &domain.Order{
		GatewayOrderID:   req.OrderID,
		PaymentLink:      "https://pay.example/" + req.OrderID,
		PaymentSessionID: "sess_" + req.OrderID,
	}, nil
}

func (g *fakeGateway) GetOrder(ctx context.Context, orderID string) (domain.OrderState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.orderErrs[orderID]; err != nil {
		return "", err
	}
	return g.orderStates[orderID], nil
}

func (g *fakeGateway) VerifyPayment(ctx context.Context, orderID, paymentID string) (*domain.PaymentVerification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return &domain.PaymentVerification{OrderID: orderID, PaymentID: paymentID, PaymentStatus: g.verifyStatus}, nil
}

func (g *fakeGateway) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subCalls++
	g.subRequests = append(g.subRequests, req)
	if g.subFailures > 0 {
		g.subFailures--
		return "", g.subErr
	}
	if g.subID != "" {
		return g.subID, nil
	}
	return "cf_" + req.SubscriptionID, nil
}

func (g *fakeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancelled = append(g.cancelled, subscriptionID)
	return nil
}

func (g *fakeGateway) subscriptionCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.subCalls
}

type harness struct {
	store      *repo.MemoryLedger
	gateway    *fakeGateway
	settings   Settings
	intents    *IntentService
	setups     *SetupRunner
	reconciler *Reconciler
	verifier   *Verifier
	webhooks   *WebhookProcessor
	reaper     *Reaper
	subs       *SubscriptionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := repo.NewMemoryLedger()
	store.SeedTier(domain.Tier{ID: 3, CreatorID: 7, Type: domain.SupportMonthly, Amount: decimal.NewFromInt(500), Title: "Monthly Gold", IsActive: true})
	store.SeedTier(domain.Tier{ID: 4, CreatorID: 7, Type: domain.SupportOneTime, Amount: decimal.NewFromInt(100), Title: "Chai", IsActive: true})
	store.SeedTier(domain.Tier{ID: 5, CreatorID: 7, Type: domain.SupportOneTime, Amount: decimal.NewFromInt(50), Title: "Retired", IsActive: false})
	store.SeedTier(domain.Tier{ID: 6, CreatorID: 8, Type: domain.SupportOneTime, Amount: decimal.NewFromInt(75), Title: "Other creator", IsActive: true})

	gateway := &fakeGateway{orderStates: map[string]domain.OrderState{}, orderErrs: map[string]error{}}
	settings := Settings{
		AppURL:                 "https://app.example/",
		GatewayTimeout:         time.Second,
		SetupMaxAttempts:       3,
		WebhookNotFoundRetries: 2,
		WebhookNotFoundBackoff: time.Millisecond,
		OrderGraceWindow:       15 * time.Minute,
		PendingPaymentTTL:      2 * time.Hour,
		Now:                    func() time.Time { return fixedNow },
		NewOrderID: func(creatorID, tierID int64, at time.Time) string {
			return NewOrderID(creatorID, tierID, at)
		},
	}
	h := &harness{store: store, gateway: gateway, settings: settings}
	h.build()
	return h
}

func (h *harness) build() {
	h.intents = NewIntentService(h.store, h.gateway, h.settings, nil)
	h.setups = NewSetupRunner(h.store, h.gateway, h.settings, nil)
	h.reconciler = NewReconciler(h.store, h.setups, h.settings, nil)
	h.verifier = NewVerifier(h.store, h.gateway, h.reconciler, h.settings, nil)
	h.webhooks = NewWebhookProcessor(h.reconciler, h.settings, nil)
	h.reaper = NewReaper(h.store, h.gateway, h.reconciler, h.settings, nil)
	h.subs = NewSubscriptionService(h.store, h.gateway, h.settings, nil)
}

// withFixedOrderID makes the next intents use the given order id.
func (h *harness) withFixedOrderID(id string) {
	h.settings.NewOrderID = func(int64, int64, time.Time) string { return id }
	h.build()
}

func (h *harness) createIntent(t *testing.T, tierID int64) *Intent {
	t.Helper()
	intent, err := h.intents.CreatePaymentIntent(context.Background(), IntentRequest{
		CreatorID:     7,
		TierID:        tierID,
		SupporterName: "Asha",
		Phone:         "9876543210",
	})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	return intent
}
