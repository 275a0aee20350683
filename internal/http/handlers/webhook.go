package handlers

import (
	"errors"
	"io"
	"net/http"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/i18n"
	"creatorsupport/internal/middleware"
	"creatorsupport/internal/payments"
	"creatorsupport/internal/providers/cashfree"
)

var webhookMessages = map[domain.ReconcileState]string{
	domain.StateApplied:           "payment reconciled",
	domain.StateAlreadyReconciled: "payment already reconciled",
	domain.StateIgnored:           "event ignored",
}

// PaymentsWebhook acknowledges gateway notifications. Anything but a
// malformed or unsigned body, a not-yet-recorded order or a store failure
// is answered 200 so the gateway stops redelivering.
func (a *App) PaymentsWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "malformed_webhook", i18n.MsgInvalidRequest, "")
		return
	}
	log := a.Logger.With().Str("request_id", middleware.RequestIDFromContext(r.Context())).Logger()

	if a.VerifySignature {
		ts := r.Header.Get(cashfree.HeaderTimestamp)
		sig := r.Header.Get(cashfree.HeaderSignature)
		if !cashfree.VerifyWebhookSignature(a.WebhookSecret, ts, body, sig) {
			log.Warn().Msg("webhook signature rejected")
			a.Unauthorized(w, r)
			return
		}
	}

	ev, err := payments.ParseWebhook(body)
	if err != nil {
		log.Warn().Err(err).Msg("malformed webhook")
		a.error(w, r, http.StatusBadRequest, "malformed_webhook", i18n.MsgInvalidRequest, "")
		return
	}

	result, err := a.Webhooks.Process(r.Context(), ev)
	switch {
	case errors.Is(err, domain.ErrOrderNotYetRecorded):
		a.fail(w, r, err)
		return
	case err != nil:
		log.Error().Err(err).Str("order_id", ev.OrderID).Msg("webhook processing failed")
		a.error(w, r, http.StatusInternalServerError, "internal", i18n.MsgGeneric, "")
		return
	}

	a.json(w, http.StatusOK, map[string]string{
		"message": webhookMessages[result.State],
		"state":   string(result.State),
	})
}
