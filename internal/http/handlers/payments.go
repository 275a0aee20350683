package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/payments"
)

// PaymentsCreate opens a pending payment and returns the hosted checkout link.
func (a *App) PaymentsCreate(w http.ResponseWriter, r *http.Request) {
	var req payments.IntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	intent, err := a.Intents.CreatePaymentIntent(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"orderId":          intent.OrderID,
		"paymentLink":      intent.PaymentLink,
		"paymentSessionId": intent.PaymentSessionID,
		"amount":           money(intent.Amount),
	})
}

// PaymentsGet serves the supporter's return page.
func (a *App) PaymentsGet(w http.ResponseWriter, r *http.Request) {
	payment, err := a.Store.GetPaymentByOrderID(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newPaymentView(payment))
}

type verifyRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
}

// PaymentsVerify confirms a payment with the gateway after checkout.
func (a *App) PaymentsVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	result, err := a.Verifier.Verify(r.Context(), req.OrderID, req.PaymentID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	body := map[string]any{
		"orderId": result.OrderID,
		"status":  resultStatus(result),
		"state":   string(result.State),
	}
	if sub := newSubscriptionView(result.Subscription); sub != nil {
		body["subscription"] = sub
	}
	if result.SetupErr != nil {
		body["subscriptionPending"] = true
	}
	a.json(w, http.StatusOK, body)
}

func resultStatus(result *domain.ReconciliationResult) string {
	if result.Status != "" {
		return string(result.Status)
	}
	if result.Payment != nil {
		return string(result.Payment.Status)
	}
	return string(domain.PaymentPending)
}
