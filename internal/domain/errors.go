package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrTierNotFound         = fmt.Errorf("tier %w", ErrNotFound)
	ErrPaymentNotFound      = fmt.Errorf("payment %w", ErrNotFound)
	ErrSubscriptionNotFound = fmt.Errorf("subscription %w", ErrNotFound)
	ErrSetupNotFound        = fmt.Errorf("subscription setup %w", ErrNotFound)
	ErrUnauthorized         = errors.New("unauthorized")
	ErrValidation           = errors.New("validation failed")
	ErrDuplicateOrder       = errors.New("duplicate gateway order id")
	ErrSetupInProgress      = errors.New("subscription setup in progress")

	// ErrOrderNotYetRecorded is returned for a webhook whose order id looks
	// freshly issued by this service but has no payment row yet. Retriable.
	ErrOrderNotYetRecorded = errors.New("order not yet recorded")

	ErrGatewayTransport          = errors.New("gateway transport failure")
	ErrGatewayBusiness           = errors.New("gateway rejected request")
	ErrGatewayOrderNotFound      = errors.New("gateway order not found")
	ErrGatewaySubscriptionExists = errors.New("gateway subscription already exists")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError for a single field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// SubscriptionSetupError is carried on a reconciliation result when the
// payment succeeded but the recurring subscription could not be set up yet.
// It never fails the enclosing request.
type SubscriptionSetupError struct {
	PaymentID int64
	Attempts  int
	GaveUp    bool
	Err       error
}

func (e *SubscriptionSetupError) Error() string {
	return fmt.Sprintf("subscription setup failed for payment %d (attempt %d): %v", e.PaymentID, e.Attempts, e.Err)
}

func (e *SubscriptionSetupError) Unwrap() error { return e.Err }
