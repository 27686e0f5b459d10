// Package domainerrors carries the error taxonomy the provider engine exposes
// to transports. Handlers translate codes into OAuth-style error responses;
// stores stay on sentinel errors and services translate at the boundary.
package domainerrors

import (
	"fmt"
	"net/http"
)

type Code string

const (
	CodeBadRequest       Code = "bad_request"
	CodeConfiguration    Code = "configuration_error"
	CodeInvalidClient    Code = "invalid_client"
	CodeClientNotFound   Code = "client_not_found"
	CodeInvalidGrant     Code = "invalid_grant"
	CodeUnsupportedGrant Code = "unsupported_grant"
	CodeInvalidAssertion Code = "invalid_assertion"
	CodeInvalidToken     Code = "invalid_token"
	CodeNotFound         Code = "not_found"
	CodeForbidden        Code = "forbidden"
	CodeInternal         Code = "internal"
)

// Error is the single error shape services return. Code drives the HTTP
// mapping, Message is safe to show to callers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code and message so tests can compare with errors.Is against
// a freshly constructed value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || e.Message == t.Message)
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the domain code from err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code onto the HTTP status the OAuth surface uses.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidGrant, CodeUnsupportedGrant, CodeClientNotFound:
		return http.StatusBadRequest
	case CodeInvalidClient, CodeInvalidAssertion, CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// OAuthError maps a domain code onto the RFC 6749 / OIDC error identifier
// written into JSON error bodies.
func OAuthError(code Code) string {
	switch code {
	case CodeBadRequest:
		return "invalid_request"
	case CodeInvalidClient:
		return "invalid_client"
	case CodeClientNotFound:
		return "unauthorized_client"
	case CodeInvalidGrant:
		return "invalid_grant"
	case CodeUnsupportedGrant:
		return "unsupported_grant_type"
	case CodeInvalidAssertion:
		return "access_denied"
	case CodeInvalidToken:
		return "invalid_token"
	case CodeNotFound:
		return "not_found"
	case CodeForbidden:
		return "access_denied"
	default:
		return "server_error"
	}
}
