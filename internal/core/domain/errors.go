package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuthRequired means there is no usable session; the operator must sign in.
	ErrAuthRequired = errors.New("authentication required")
	// ErrForbidden means the current role lacks the capability for the action.
	ErrForbidden = errors.New("access forbidden")
	// ErrNetwork means a request to an upstream service could not complete.
	ErrNetwork = errors.New("network failure")
	// ErrInvalidInput means a request was rejected before reaching any upstream.
	ErrInvalidInput = errors.New("invalid input")
	ErrUserNotFound = errors.New("user not found")
)

// UpstreamError is a non-2xx response from the identity, ledger or reporting
// service. Body is the response text, kept verbatim.
type UpstreamError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s %s: %d - %s", e.Service, e.Method, e.Path, e.StatusCode, e.Body)
}

// Is lets a rejected bearer token surface as ErrAuthRequired.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrAuthRequired && e.StatusCode == http.StatusUnauthorized
}

// UserMessage renders err as the single message shown to the operator.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ue *UpstreamError
	switch {
	case errors.As(err, &ue):
		if ue.StatusCode == http.StatusUnauthorized {
			return "session expired, please sign in again"
		}
		body := strings.TrimSpace(ue.Body)
		if body == "" {
			body = http.StatusText(ue.StatusCode)
		}
		return fmt.Sprintf("%s service error (%d): %s", ue.Service, ue.StatusCode, body)
	case errors.Is(err, ErrAuthRequired):
		return "please sign in to continue"
	case errors.Is(err, ErrNetwork):
		return "could not reach the server, check your connection and try again"
	case errors.Is(err, ErrForbidden):
		return "you do not have permission to do that"
	}
	return err.Error()
}
