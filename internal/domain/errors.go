package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrKind is used to map harness errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindForbidden      ErrKind = "forbidden"      // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindAssertion      ErrKind = "assertion"      // 409
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Error is a structured harness error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: human-readable summary; for assertions it names expected vs actual
// - Meta: optional details (email, op, status, ...)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "missing required field"), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

// ----------------------
// Auth errors (401 / 403)
// ----------------------

func ErrTokenMissing() *Error {
	return New(KindAuth, "token_missing", "no token provided")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "invalid token")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, "token_expired", "token is expired")
}

func ErrInsufficientRole(required string) *Error {
	return WithMeta(New(KindForbidden, "insufficient_role", "insufficient role"), map[string]string{
		"required": required,
	})
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrAccountNotFound(email string) *Error {
	return WithMeta(New(KindNotFound, "account_not_found", "account not found"), map[string]string{
		"email": email,
	})
}

// ErrMissingToken is returned when a URL is requested for an account that has
// no active verification token.
func ErrMissingToken(email string) *Error {
	return WithMeta(
		New(KindNotFound, "missing_token", fmt.Sprintf("no verification token for %s", email)),
		map[string]string{"email": email},
	)
}

// ----------------------
// Assertions (409)
// ----------------------

func ErrAssertion(msg string) *Error {
	return New(KindAssertion, "assertion_failed", msg)
}

func ErrAssertionf(format string, args ...any) *Error {
	return ErrAssertion(fmt.Sprintf(format, args...))
}

// ErrEmptyResponse is returned when an observed HTTP body is empty and the
// status does not qualify as an acceptable auth rejection.
func ErrEmptyResponse(status int) *Error {
	return WithMeta(
		New(KindAssertion, "empty_response", fmt.Sprintf("empty response body with status %d", status)),
		map[string]string{"status": strconv.Itoa(status)},
	)
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

// ErrQueryFailed wraps a failed statement. It is never retried.
func ErrQueryFailed(op, email string, cause error) *Error {
	return WithMeta(
		Wrap(KindInfrastructure, "query_failed", fmt.Sprintf("%s failed for %s", op, email), cause),
		map[string]string{"op": op, "email": email},
	)
}

// ErrTxFailed reports a begin or commit failure. It shares query_failed with
// ErrQueryFailed since callers cannot act on the difference.
func ErrTxFailed(cause error) *Error {
	return Wrap(KindInfrastructure, "query_failed", "transaction failed", cause)
}

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrRedisUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "redis_unavailable", "cache unavailable", cause)
}

func ErrRabbitUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "rabbit_unavailable", "message broker unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
