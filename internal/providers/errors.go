package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a provider failure for the caller.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindValidation     Kind = "validation"
	KindUnavailable    Kind = "unavailable"
	KindRateLimited    Kind = "rate_limited"
	KindNotFound       Kind = "not_found"
)

// Error is the single terminal outcome an adapter reports for a failed call.
// Adapters never let raw transport or decoding errors escape.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Timeout  bool
	cause    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, provider, message string) *Error {
	return &Error{Kind: kind, Provider: provider, Message: message}
}

// IsKind reports whether err is a provider error of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

// fromStatus maps an HTTP status to the taxonomy. detail carries whatever the
// provider put in its error body.
func fromStatus(provider string, status int, detail string) *Error {
	switch status {
	case http.StatusBadRequest:
		return newError(KindValidation, provider, "provider rejected request: "+detail)
	case http.StatusUnauthorized:
		return newError(KindAuthentication, provider, "credentials rejected, check client id/secret")
	case http.StatusNotFound:
		return newError(KindNotFound, provider, "no matching resource: "+detail)
	case http.StatusTooManyRequests:
		return newError(KindRateLimited, provider, "rate limit exceeded")
	default:
		return newError(KindUnavailable, provider, fmt.Sprintf("unexpected status %d: %s", status, detail))
	}
}

// fromTransport maps network-level failures. Timeouts keep a marker so the
// orchestrator stats can tell a stuck provider from an unreachable one.
func fromTransport(provider string, err error) *Error {
	pe := &Error{Kind: KindUnavailable, Provider: provider, Message: "provider unreachable", cause: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		pe.Message = "provider timed out"
		pe.Timeout = true
	}
	return pe
}
