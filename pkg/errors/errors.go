package errors

import (
	"fmt"
	"strings"
)

// ErrAuthRequired is returned when no Lazada credential has ever been granted.
// The user must complete the authorization flow; this is not a bug.
type ErrAuthRequired struct{}

func (e *ErrAuthRequired) Error() string {
	return "lazada authorization required: no credential stored"
}

// ErrAuthExchangeFailed is returned when the authorization-code exchange is
// rejected by the marketplace. No credential is stored in that case.
type ErrAuthExchangeFailed struct {
	Detail string
}

func (e *ErrAuthExchangeFailed) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("lazada token exchange failed: %s", e.Detail)
	}
	return "lazada token exchange failed"
}

// ErrRefreshFailed is returned when the stored refresh token is rejected.
// The stale credential is left in place; the user must re-authorize.
type ErrRefreshFailed struct {
	Detail string
}

func (e *ErrRefreshFailed) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("lazada token refresh failed: %s", e.Detail)
	}
	return "lazada token refresh failed"
}

// ErrTransport is returned when the marketplace could not be reached or
// returned an unreadable response. Body preserves the raw payload for
// debugging.
type ErrTransport struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *ErrTransport) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lazada %s: transport error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("lazada %s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

func (e *ErrTransport) Unwrap() error {
	return e.Err
}

// ErrBusiness is returned when the marketplace responded but with a non-"0"
// code. Carries the marketplace's own code and message.
type ErrBusiness struct {
	Op      string
	Code    string
	Message string
}

func (e *ErrBusiness) Error() string {
	return fmt.Sprintf("lazada %s: code %s: %s", e.Op, e.Code, e.Message)
}

// ErrValidation is returned when required item fields are missing before a
// remote call is attempted.
type ErrValidation struct {
	Message string
	Fields  []string
}

func (e *ErrValidation) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
	}
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrNotFound is returned when a local resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}
