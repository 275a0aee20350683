package handlers

import (
	"context"
	"net/http"
	"time"
)

const ledgerPingTimeout = 2 * time.Second

// Health reports whether the ledger answers. Without a LedgerPing the
// process is assumed healthy.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	if a.LedgerPing == nil {
		a.json(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), ledgerPingTimeout)
	defer cancel()
	if err := a.LedgerPing(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("ledger ping failed")
		a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "ledger": "unreachable"})
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok", "ledger": "ok"})
}
