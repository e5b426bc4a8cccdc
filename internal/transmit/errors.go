package transmit

import (
	"errors"
	"fmt"
	"net/http"
)

// DeliveryError is raised for HTTP statuses worth retrying. Retryability is a
// typed field set at the point the transport failure is observed, so the
// classifier never has to pattern-match message text. The message format is
// load-bearing: hosts log it verbatim.
type DeliveryError struct {
	StatusCode int
	StatusText string
	Retryable  bool
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("SET transmission failed: %d %s", e.StatusCode, e.StatusText)
}

// NewDeliveryError builds a DeliveryError for the given HTTP status, deriving
// the retryable flag and status text from the code.
func NewDeliveryError(statusCode int) *DeliveryError {
	return &DeliveryError{
		StatusCode: statusCode,
		StatusText: http.StatusText(statusCode),
		Retryable:  retryableStatus(statusCode),
	}
}

// retryableStatus is the fixed set of transient HTTP statuses.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsRetryable reports whether err carries a retryable delivery failure.
func IsRetryable(err error) bool {
	de, ok := AsDeliveryError(err)
	return ok && de.Retryable
}

// AsDeliveryError extracts a DeliveryError from err's chain.
func AsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
