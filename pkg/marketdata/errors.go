package marketdata

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	// KindUnreachable covers transport failures, timeouts, bad statuses and
	// responses that could not be parsed.
	KindUnreachable ErrorKind = "unreachable"
	// KindRateLimited covers upstream plan or rate limit rejections.
	KindRateLimited ErrorKind = "rate_limited"
)

// ProviderError is a classified failure from the market data provider.
// Absent data is never reported this way; it comes back as a nil value.
type ProviderError struct {
	Kind    ErrorKind
	Op      string // quote, overview, history or news
	Symbol  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	target := e.Op
	if e.Symbol != "" {
		target = fmt.Sprintf("%s %s", e.Op, e.Symbol)
	}
	if e.Err != nil {
		return fmt.Sprintf("market data %s: %s: %v", target, e.Message, e.Err)
	}
	return fmt.Sprintf("market data %s: %s", target, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As support.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(kind ErrorKind, op, symbol, message string) *ProviderError {
	return &ProviderError{Kind: kind, Op: op, Symbol: symbol, Message: message}
}

func wrapProviderError(kind ErrorKind, op, symbol, message string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Op: op, Symbol: symbol, Message: message, Err: err}
}

// IsRateLimited reports whether err is a provider rate limit rejection.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindRateLimited
}

// IsUnreachable reports whether err is a provider availability failure.
func IsUnreachable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindUnreachable
}
