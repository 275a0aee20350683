package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	defaultSupportersLimit = 20
	maxSupportersLimit     = 100
)

func (a *App) CreatorSupporters(w http.ResponseWriter, r *http.Request) {
	creatorID, err := parseID(chi.URLParam(r, "creatorId"), "creatorId")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultSupportersLimit, maxSupportersLimit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	entries, err := a.Store.ListSupporters(r.Context(), creatorID, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]supporterView, 0, len(entries))
	for _, e := range entries {
		items = append(items, supporterView{
			Name:            e.DisplayName,
			Amount:          money(e.Amount),
			Type:            string(e.Type),
			IsAnonymous:     e.IsAnonymous,
			LastSupportedAt: e.LastSupportedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) CreatorAnalytics(w http.ResponseWriter, r *http.Request) {
	creatorID, err := parseID(chi.URLParam(r, "creatorId"), "creatorId")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	stats, err := a.Store.CreatorAnalytics(r.Context(), creatorID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"creatorId":           creatorID,
		"totalRevenue":        money(stats.TotalRevenue),
		"monthlyRevenue":      money(stats.MonthlyRevenue),
		"totalPayments":       stats.TotalPayments,
		"successfulPayments":  stats.SuccessfulPayments,
		"activeSubscriptions": stats.ActiveSubscriptions,
	})
}
