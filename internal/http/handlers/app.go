package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/i18n"
	"creatorsupport/internal/infra"
	"creatorsupport/internal/middleware"
	"creatorsupport/internal/payments"
)

const maxBodyBytes = 1 << 20

// App carries the services behind the JSON API.
type App struct {
	Store         domain.LedgerStore
	Intents       *payments.IntentService
	Verifier      *payments.Verifier
	Webhooks      *payments.WebhookProcessor
	Setups        *payments.SetupRunner
	Subscriptions *payments.SubscriptionService
	Logger        infra.Logger

	// LedgerPing backs the health check; nil for ledgers with nothing to dial.
	LedgerPing func(context.Context) error

	// WebhookSecret is checked against x-webhook-signature when
	// VerifySignature is set.
	WebhookSecret   string
	VerifySignature bool
}

// WebhookOptions controls webhook signature checking.
type WebhookOptions struct {
	Secret          string
	VerifySignature bool
}

// NewApp wires the payment services over one ledger and gateway.
func NewApp(store domain.LedgerStore, gateway domain.Gateway, settings payments.Settings, logger infra.Logger, webhook WebhookOptions) *App {
	setups := payments.NewSetupRunner(store, gateway, settings, &logger)
	reconciler := payments.NewReconciler(store, setups, settings, &logger)
	return &App{
		Store:           store,
		Intents:         payments.NewIntentService(store, gateway, settings, &logger),
		Verifier:        payments.NewVerifier(store, gateway, reconciler, settings, &logger),
		Webhooks:        payments.NewWebhookProcessor(reconciler, settings, &logger),
		Setups:          setups,
		Subscriptions:   payments.NewSubscriptionService(store, gateway, settings, &logger),
		Logger:          logger,
		WebhookSecret:   webhook.Secret,
		VerifySignature: webhook.VerifySignature,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code, key, field string) {
	msg := i18n.Translate(middleware.LocaleFromContext(r.Context()), key)
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: msg, Field: field}})
}

// fail maps err onto the error envelope. Only server-side failures are
// logged at error level; the response never carries err's text.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, key := classify(err)
	var field string
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		field = verr.Field
	}

	evt := a.Logger.Debug()
	if status >= http.StatusInternalServerError {
		evt = a.Logger.Error()
	}
	evt.Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("request failed")

	a.error(w, r, status, code, key, field)
}

func classify(err error) (status int, code, key string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "invalid_request", i18n.MsgInvalidRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", i18n.MsgNotFound
	case errors.Is(err, domain.ErrDuplicateOrder):
		return http.StatusConflict, "duplicate_order", i18n.MsgConflict
	case errors.Is(err, domain.ErrSetupInProgress):
		return http.StatusConflict, "setup_in_progress", i18n.MsgConflict
	case errors.Is(err, domain.ErrOrderNotYetRecorded):
		return http.StatusServiceUnavailable, "order_not_recorded", i18n.MsgUnavailable
	case errors.Is(err, domain.ErrGatewayTransport):
		return http.StatusServiceUnavailable, "gateway_unavailable", i18n.MsgUnavailable
	case errors.Is(err, domain.ErrGatewayBusiness):
		return http.StatusUnprocessableEntity, "gateway_rejected", i18n.MsgRejected
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", i18n.MsgUnauthorized
	default:
		return http.StatusInternalServerError, "internal", i18n.MsgGeneric
	}
}

// Unauthorized is the rejection used by the auth middleware.
func (a *App) Unauthorized(w http.ResponseWriter, r *http.Request) {
	a.error(w, r, http.StatusUnauthorized, "unauthorized", i18n.MsgUnauthorized, "")
}

// TooManyRequests is the rejection used by the rate limiter.
func (a *App) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	a.error(w, r, http.StatusTooManyRequests, "rate_limited", i18n.MsgTooManyRequests, "")
}

func (a *App) NotFound(w http.ResponseWriter, r *http.Request) {
	a.error(w, r, http.StatusNotFound, "not_found", i18n.MsgNotFound, "")
}

func (a *App) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.error(w, r, http.StatusMethodNotAllowed, "method_not_allowed", i18n.MsgInvalidRequest, "")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("", "malformed JSON body")
	}
	return nil
}

func parseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(field, "must be a positive integer")
	}
	return id, nil
}

func parseLimit(raw string, fallback, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, domain.Invalid("limit", "must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}
