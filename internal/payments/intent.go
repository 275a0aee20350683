package payments

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
)

// IntentRequest is the supporter's checkout request.
type IntentRequest struct {
	CreatorID     int64  `json:"creatorId" validate:"gt=0"`
	TierID        int64  `json:"tierId" validate:"gt=0"`
	SupporterName string `json:"supporterName" validate:"required,max=255"`
	IsAnonymous   bool   `json:"isAnonymous"`
	Email         string `json:"email" validate:"omitempty,email,max=255"`
	Phone         string `json:"phone" validate:"required,number,min=10,max=15"`
	SupporterID   *int64 `json:"-"`
}

// Intent is returned to the supporter to continue checkout on the gateway.
type Intent struct {
	OrderID          string
	PaymentLink      string
	PaymentSessionID string
	Amount           decimal.Decimal
	Payment          *domain.Payment
}

type intentStore interface {
	domain.TierReader
	CreatePayment(ctx context.Context, payment *domain.Payment) error
}

// IntentService records a pending payment and opens the matching gateway order.
type IntentService struct {
	store    intentStore
	gateway  domain.Gateway
	settings Settings
	validate *validator.Validate
	logger   *infra.Logger
}

func NewIntentService(store intentStore, gateway domain.Gateway, settings Settings, logger *infra.Logger) *IntentService {
	return &IntentService{
		store:    store,
		gateway:  gateway,
		settings: settings.withDefaults(),
		validate: newValidator(),
		logger:   loggerOrNop(logger),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func normalizeIntent(req IntentRequest) IntentRequest {
	req.SupporterName = strings.TrimSpace(req.SupporterName)
	req.Email = strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)
	phone = strings.TrimPrefix(phone, "+")
	phone = strings.NewReplacer(" ", "", "-", "").Replace(phone)
	req.Phone = phone
	return req
}

func (s *IntentService) check(req IntentRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.Invalid(fe.Field(), "failed "+fe.Tag())
	}
	return domain.Invalid("", err.Error())
}

// CreatePaymentIntent validates the request against the tier, inserts the
// pending payment, then asks the gateway for an order. The amount always
// comes from the tier.
func (s *IntentService) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	req = normalizeIntent(req)
	if err := s.check(req); err != nil {
		return nil, err
	}

	tier, err := s.store.GetTier(ctx, req.TierID)
	if err != nil {
		return nil, err
	}
	if !tier.IsActive {
		return nil, domain.Invalid("tierId", "tier is not active")
	}
	if tier.CreatorID != req.CreatorID {
		return nil, domain.Invalid("creatorId", "does not own tier")
	}
	if !tier.Type.Valid() {
		return nil, domain.Invalid("tierId", "tier has unknown type")
	}

	now := s.settings.Now()
	payment := &domain.Payment{
		CreatorID:      req.CreatorID,
		SupporterID:    req.SupporterID,
		TierID:         tier.ID,
		Amount:         tier.Amount,
		Type:           tier.Type,
		Gateway:        domain.GatewayCashfree,
		GatewayOrderID: s.settings.NewOrderID(req.CreatorID, tier.ID, now),
		Status:         domain.PaymentPending,
		SupporterName:  req.SupporterName,
		SupporterEmail: req.Email,
		SupporterPhone: req.Phone,
		IsAnonymous:    req.IsAnonymous,
		CreatedAt:      now,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	log := s.logger.With().
		Str("order_id", payment.GatewayOrderID).
		Int64("creator_id", payment.CreatorID).
		Int64("tier_id", payment.TierID).
		Logger()

	callCtx, cancel := context.WithTimeout(ctx, s.settings.GatewayTimeout)
	defer cancel()
	order, err := s.gateway.CreateOrder(callCtx, domain.OrderRequest{
		OrderID: payment.GatewayOrderID,
		Amount:  payment.Amount,
		Customer: domain.Customer{
			Name:  payment.SupporterName,
			Email: payment.SupporterEmail,
			Phone: payment.SupporterPhone,
		},
		ReturnURL: s.settings.returnURL(payment.GatewayOrderID),
		Note:      "Support for " + tier.Title,
		ExpiresAt: now.Add(s.settings.PendingPaymentTTL),
	})
	if err != nil {
		log.Error().Err(err).Msg("gateway create order failed; payment left pending")
		return nil, err
	}
	if order.GatewayOrderID != "" && order.GatewayOrderID != payment.GatewayOrderID {
		log.Warn().Str("gateway_order_id", order.GatewayOrderID).Msg("gateway echoed a different order id; keeping ours")
	}
	log.Info().Str("amount", payment.Amount.String()).Str("type", string(payment.Type)).Msg("payment intent created")

	return &Intent{
		OrderID:          payment.GatewayOrderID,
		PaymentLink:      order.PaymentLink,
		PaymentSessionID: order.PaymentSessionID,
		Amount:           payment.Amount,
		Payment:          payment,
	}, nil
}
