package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"creatorsupport/internal/domain"
)

// MemoryLedger is an in-process domain.LedgerStore for local runs and tests.
// A single mutex stands in for the database row locks, so FinalizePayment
// keeps the same one-winner guarantee as the PostgreSQL store.
type MemoryLedger struct {
	mu sync.Mutex

	nextID int64

	tiers         map[int64]domain.Tier
	payments      map[int64]*domain.Payment
	orderIndex    map[string]int64
	entries       []domain.SupporterPublicEntry
	subscriptions map[int64]*domain.Subscription
	setups        map[int64]*domain.SubscriptionSetup
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		tiers:         map[int64]domain.Tier{},
		payments:      map[int64]*domain.Payment{},
		orderIndex:    map[string]int64{},
		subscriptions: map[int64]*domain.Subscription{},
		setups:        map[int64]*domain.SubscriptionSetup{},
	}
}

var _ domain.LedgerStore = (*MemoryLedger)(nil)

func (m *MemoryLedger) id() int64 {
	m.nextID++
	return m.nextID
}

// SeedTier stores a tier, keeping its id when set.
func (m *MemoryLedger) SeedTier(t domain.Tier) domain.Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.id()
	} else if t.ID > m.nextID {
		m.nextID = t.ID
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.tiers[t.ID] = t
	return t
}

func (m *MemoryLedger) GetTier(ctx context.Context, tierID int64) (*domain.Tier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tiers[tierID]
	if !ok {
		return nil, domain.ErrTierNotFound
	}
	return &t, nil
}

func (m *MemoryLedger) CreatePayment(ctx context.Context, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orderIndex[p.GatewayOrderID]; exists {
		return domain.ErrDuplicateOrder
	}
	p.ID = m.id()
	p.Status = domain.PaymentPending
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	stored := *p
	m.payments[p.ID] = &stored
	m.orderIndex[p.GatewayOrderID] = p.ID
	return nil
}

func (m *MemoryLedger) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryLedger) GetPaymentByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.orderIndex[orderID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *m.payments[id]
	return &cp, nil
}

func (m *MemoryLedger) FinalizePayment(ctx context.Context, params domain.FinalizeParams) (*domain.Transition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.orderIndex[params.OrderID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	p := m.payments[id]
	if p.Status != domain.PaymentPending {
		cp := *p
		return &domain.Transition{Payment: &cp}, nil
	}

	p.Status = params.Status
	cp := *p
	out := &domain.Transition{Payment: &cp, Applied: true}
	if params.Status != domain.PaymentSuccess {
		return out, nil
	}

	entry := domain.NewSupporterEntry(&cp, params.At)
	entry.ID = m.id()
	m.entries = append(m.entries, *entry)
	out.Entry = entry

	if cp.Type == domain.SupportMonthly {
		setup := &domain.SubscriptionSetup{
			ID:              m.id(),
			PaymentID:       cp.ID,
			SubscriptionRef: params.SubscriptionRef,
			Status:          domain.SetupPending,
			NextAttemptAt:   params.SetupNotBefore,
			CreatedAt:       params.At,
			UpdatedAt:       params.At,
		}
		m.setups[cp.ID] = setup
		sc := *setup
		out.Setup = &sc
	}
	return out, nil
}

func (m *MemoryLedger) ListStalePendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.Payment
	for _, p := range m.payments {
		if p.Status == domain.PaymentPending && p.CreatedAt.Before(createdBefore) {
			items = append(items, *p)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryLedger) GetSubscription(ctx context.Context, id int64) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscriptions {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSubscriptionNotFound
}

func (m *MemoryLedger) GetSubscriptionByPaymentID(ctx context.Context, paymentID int64) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscriptions[paymentID]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryLedger) CancelSubscription(ctx context.Context, id int64, at time.Time) (*domain.Subscription, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscriptions {
		if s.ID != id {
			continue
		}
		if s.Status == domain.SubscriptionCancelled {
			cp := *s
			return &cp, false, nil
		}
		s.Status = domain.SubscriptionCancelled
		cancelled := at
		s.CancelledAt = &cancelled
		cp := *s
		return &cp, true, nil
	}
	return nil, false, domain.ErrSubscriptionNotFound
}

func (m *MemoryLedger) GetSubscriptionSetup(ctx context.Context, paymentID int64) (*domain.SubscriptionSetup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.setups[paymentID]
	if !ok {
		return nil, domain.ErrSetupNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryLedger) ClaimDueSubscriptionSetups(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]domain.SubscriptionSetup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*domain.SubscriptionSetup
	for _, s := range m.setups {
		if s.Status == domain.SetupPending && !s.NextAttemptAt.After(now) {
			due = append(due, s)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	items := make([]domain.SubscriptionSetup, 0, len(due))
	for _, s := range due {
		s.NextAttemptAt = now.Add(lease)
		s.UpdatedAt = now
		items = append(items, *s)
	}
	return items, nil
}

func (m *MemoryLedger) ClaimSubscriptionSetup(ctx context.Context, paymentID int64, now time.Time, lease time.Duration) (*domain.SubscriptionSetup, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.setups[paymentID]
	if !ok {
		return nil, false, domain.ErrSetupNotFound
	}
	claimable := s.Status == domain.SetupFailed || (s.Status == domain.SetupPending && !s.NextAttemptAt.After(now))
	if !claimable {
		cp := *s
		return &cp, false, nil
	}
	if s.Status == domain.SetupFailed {
		s.Attempts = 0
	}
	s.Status = domain.SetupPending
	s.NextAttemptAt = now.Add(lease)
	s.UpdatedAt = now
	cp := *s
	return &cp, true, nil
}

func (m *MemoryLedger) ListSubscriptionSetups(ctx context.Context, status domain.SetupStatus, limit int) ([]domain.SubscriptionSetup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.SubscriptionSetup
	for _, s := range m.setups {
		if s.Status == status {
			items = append(items, *s)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UpdatedAt.After(items[j].UpdatedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryLedger) CompleteSubscriptionSetup(ctx context.Context, setupID int64, sub *domain.Subscription) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var setup *domain.SubscriptionSetup
	for _, s := range m.setups {
		if s.ID == setupID {
			setup = s
			break
		}
	}
	if setup == nil {
		return nil, domain.ErrSetupNotFound
	}
	existing, ok := m.subscriptions[sub.PaymentID]
	if !ok {
		stored := *sub
		stored.ID = m.id()
		m.subscriptions[sub.PaymentID] = &stored
		existing = &stored
	}
	setup.Status = domain.SetupDone
	setup.LastError = ""
	setup.UpdatedAt = time.Now().UTC()
	cp := *existing
	return &cp, nil
}

func (m *MemoryLedger) RecordSubscriptionSetupFailure(ctx context.Context, setupID int64, errMsg string, nextAttemptAt time.Time, giveUp bool) (*domain.SubscriptionSetup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.setups {
		if s.ID != setupID || s.Status != domain.SetupPending {
			continue
		}
		s.Attempts++
		s.LastError = errMsg
		s.NextAttemptAt = nextAttemptAt
		s.UpdatedAt = time.Now().UTC()
		if giveUp {
			s.Status = domain.SetupFailed
		}
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrSetupNotFound
}

func (m *MemoryLedger) ListSupporters(ctx context.Context, creatorID int64, limit int) ([]domain.SupporterPublicEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.SupporterPublicEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].CreatorID == creatorID {
			items = append(items, m.entries[i])
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].LastSupportedAt.After(items[j].LastSupportedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryLedger) CreatorAnalytics(ctx context.Context, creatorID int64) (*domain.CreatorAnalytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &domain.CreatorAnalytics{CreatorID: creatorID, TotalRevenue: decimal.Zero, MonthlyRevenue: decimal.Zero}
	for _, p := range m.payments {
		if p.CreatorID != creatorID {
			continue
		}
		out.TotalPayments++
		if p.Status == domain.PaymentSuccess {
			out.SuccessfulPayments++
			out.TotalRevenue = out.TotalRevenue.Add(p.Amount)
		}
	}
	for _, s := range m.subscriptions {
		if s.CreatorID == creatorID && s.Status == domain.SubscriptionActive {
			out.ActiveSubscriptions++
			out.MonthlyRevenue = out.MonthlyRevenue.Add(s.Amount)
		}
	}
	return out, nil
}

// Counts reports stored row counts, for assertions in tests.
func (m *MemoryLedger) Counts() (payments, entries, subscriptions, setups int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments), len(m.entries), len(m.subscriptions), len(m.setups)
}
