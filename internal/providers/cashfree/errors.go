package cashfree

import (
	"errors"
	"fmt"
	"net/http"

	"creatorsupport/internal/domain"
)

// TransportError covers failures where the request may not have reached
// Cashfree or Cashfree could not answer: network errors, timeouts, 5xx and 429.
// Callers may retry.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("cashfree: %s: http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("cashfree: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == domain.ErrGatewayTransport }

// BusinessError is a 4xx rejection by Cashfree.
type BusinessError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *BusinessError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("cashfree: %s: %s (%s)", e.Op, msg, e.Code)
	}
	return fmt.Sprintf("cashfree: %s: %s", e.Op, msg)
}

// IsNotFound reports whether Cashfree answered 404.
func (e *BusinessError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

func (e *BusinessError) Is(target error) bool {
	switch target {
	case domain.ErrGatewayBusiness:
		return true
	case domain.ErrGatewayOrderNotFound:
		return e.IsNotFound()
	case domain.ErrGatewaySubscriptionExists:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// IsNotFound reports whether err is a Cashfree 404.
func IsNotFound(err error) bool {
	var be *BusinessError
	return errors.As(err, &be) && be.IsNotFound()
}

func retriableStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}
