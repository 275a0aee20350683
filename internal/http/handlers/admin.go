package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"creatorsupport/internal/domain"
)

const (
	defaultSetupsLimit = 50
	maxSetupsLimit     = 100
)

// AdminListSetups lists subscription setups by status, failed by default.
func (a *App) AdminListSetups(w http.ResponseWriter, r *http.Request) {
	status := domain.SetupStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	switch status {
	case "":
		status = domain.SetupFailed
	case domain.SetupPending, domain.SetupDone, domain.SetupFailed:
	default:
		a.fail(w, r, domain.Invalid("status", "must be pending, done or failed"))
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultSetupsLimit, maxSetupsLimit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	setups, err := a.Setups.List(r.Context(), status, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]setupView, 0, len(setups))
	for i := range setups {
		items = append(items, newSetupView(&setups[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// AdminRetrySetup runs one subscription setup immediately.
func (a *App) AdminRetrySetup(w http.ResponseWriter, r *http.Request) {
	paymentID, err := parseID(chi.URLParam(r, "paymentId"), "paymentId")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out, err := a.Setups.Retry(r.Context(), paymentID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	body := map[string]any{
		"setup":       newSetupView(out.Setup),
		"retryFailed": out.SetupErr != nil,
	}
	if sub := newSubscriptionView(out.Subscription); sub != nil {
		body["subscription"] = sub
	}
	a.json(w, http.StatusOK, body)
}

// AdminCancelSubscription cancels at the gateway, then locally.
func (a *App) AdminCancelSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	sub, err := a.Subscriptions.Cancel(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newSubscriptionView(sub))
}
