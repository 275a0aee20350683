package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
)

// ErrMalformedWebhook marks payloads that cannot be acknowledged.
var ErrMalformedWebhook = errors.New("malformed webhook payload")

// WebhookEvent is the part of a gateway notification the core cares about.
type WebhookEvent struct {
	OrderID       string
	PaymentStatus string
	Outcome       domain.Outcome
}

var (
	orderIDPaths = [][]string{
		{"order_id"},
		{"orderId"},
		{"data", "order_id"},
		{"data", "order", "order_id"},
	}
	statusPaths = [][]string{
		{"payment_status"},
		{"paymentStatus"},
		{"data", "payment_status"},
		{"data", "payment", "payment_status"},
	}
)

// ParseWebhook decodes a raw notification body. The order id and payment
// status are looked up under each field layout the gateway has used.
func ParseWebhook(body []byte) (WebhookEvent, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}
	orderID := firstString(doc, orderIDPaths)
	if orderID == "" {
		return WebhookEvent{}, fmt.Errorf("%w: order id missing", ErrMalformedWebhook)
	}
	status := firstString(doc, statusPaths)
	return WebhookEvent{
		OrderID:       orderID,
		PaymentStatus: status,
		Outcome:       domain.ParseOutcome(status),
	}, nil
}

func firstString(doc map[string]any, paths [][]string) string {
	for _, path := range paths {
		if v := lookup(doc, path); v != "" {
			return v
		}
	}
	return ""
}

func lookup(node map[string]any, path []string) string {
	for i, key := range path {
		v, ok := node[key]
		if !ok {
			return ""
		}
		if i == len(path)-1 {
			s, _ := v.(string)
			return strings.TrimSpace(s)
		}
		next, ok := v.(map[string]any)
		if !ok {
			return ""
		}
		node = next
	}
	return ""
}

// WebhookProcessor reconciles gateway notifications. A notification that
// races ahead of the local payment insert is retried briefly in-process.
type WebhookProcessor struct {
	reconciler *Reconciler
	settings   Settings
	logger     *infra.Logger
}

func NewWebhookProcessor(reconciler *Reconciler, settings Settings, logger *infra.Logger) *WebhookProcessor {
	return &WebhookProcessor{
		reconciler: reconciler,
		settings:   settings.withDefaults(),
		logger:     loggerOrNop(logger),
	}
}

// Process applies one event. Unknown order ids carrying a terminal outcome
// that could still be in flight yield domain.ErrOrderNotYetRecorded once the
// retries run out; everything else about an unknown id is reported as ignored.
func (p *WebhookProcessor) Process(ctx context.Context, ev WebhookEvent) (*domain.ReconciliationResult, error) {
	result, err := p.reconciler.Reconcile(ctx, ev.OrderID, ev.Outcome, domain.SourceWebhook)
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		return result, err
	}

	log := p.logger.With().Str("order_id", ev.OrderID).Logger()
	if _, terminal := ev.Outcome.TargetStatus(); !terminal {
		log.Info().Str("outcome", string(ev.Outcome)).Msg("non-terminal webhook for unrecorded order ignored")
		return &domain.ReconciliationResult{OrderID: ev.OrderID, State: domain.StateIgnored}, nil
	}
	if !p.mayStillExist(ev.OrderID) {
		log.Info().Msg("webhook for unknown order ignored")
		return &domain.ReconciliationResult{OrderID: ev.OrderID, State: domain.StateIgnored}, nil
	}

	for attempt := 1; attempt <= p.settings.WebhookNotFoundRetries; attempt++ {
		if err := sleepCtx(ctx, time.Duration(attempt)*p.settings.WebhookNotFoundBackoff); err != nil {
			return nil, err
		}
		result, err = p.reconciler.Reconcile(ctx, ev.OrderID, ev.Outcome, domain.SourceWebhook)
		if !errors.Is(err, domain.ErrPaymentNotFound) {
			return result, err
		}
	}
	log.Warn().Int("retries", p.settings.WebhookNotFoundRetries).Msg("webhook order not recorded yet; asking gateway to redeliver")
	return nil, domain.ErrOrderNotYetRecorded
}

func (p *WebhookProcessor) mayStillExist(orderID string) bool {
	ref, ok := ParseOrderID(orderID)
	if !ok {
		return false
	}
	age := p.settings.Now().Sub(ref.IssuedAt)
	return age >= -time.Minute && age <= p.settings.OrderGraceWindow
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
