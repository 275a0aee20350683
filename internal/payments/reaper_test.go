package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorsupport/internal/domain"
)

func TestReaperSweep(t *testing.T) {
	h := newHarness(t)
	ids := map[string]string{}
	for _, name := range []string{"paid", "expired", "active", "missing", "down", "odd"} {
		ids[name] = h.createIntent(t, 4).OrderID
	}
	h.gateway.orderStates[ids["paid"]] = domain.OrderPaid
	h.gateway.orderStates[ids["expired"]] = domain.OrderExpired
	h.gateway.orderStates[ids["active"]] = domain.OrderActive
	h.gateway.orderErrs[ids["missing"]] = domain.ErrGatewayOrderNotFound
	h.gateway.orderErrs[ids["down"]] = domain.ErrGatewayTransport
	h.gateway.orderStates[ids["odd"]] = domain.OrderState("PARTIALLY_PAID")

	h.settings.Now = func() time.Time { return fixedNow.Add(3 * time.Hour) }
	h.build()

	stats, err := h.reaper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReapStats{Scanned: 6, Succeeded: 1, Failed: 3, Skipped: 2}, stats)

	want := map[string]domain.PaymentStatus{
		"paid":    domain.PaymentSuccess,
		"expired": domain.PaymentFailed,
		"active":  domain.PaymentFailed,
		"missing": domain.PaymentFailed,
		"down":    domain.PaymentPending,
		"odd":     domain.PaymentPending,
	}
	for name, status := range want {
		p, err := h.store.GetPaymentByOrderID(context.Background(), ids[name])
		require.NoError(t, err)
		assert.Equal(t, status, p.Status, name)
	}
	_, entries, _, _ := h.store.Counts()
	assert.Equal(t, 1, entries)
}

func TestReaperLeavesFreshPayments(t *testing.T) {
	h := newHarness(t)
	h.createIntent(t, 4)

	stats, err := h.reaper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Scanned)
}
