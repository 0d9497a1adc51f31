package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/envelope"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
)

// HeaderErrorCode carries the stable domain error code next to the envelope,
// which only has room for human-readable messages.
const HeaderErrorCode = "X-Error-Code"

// WriteEnvelope writes env as JSON with the given status code.
func WriteEnvelope(w http.ResponseWriter, status int, env envelope.Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes {"success":true,"code":200,"data":...}.
func OK(w http.ResponseWriter, data any) {
	WriteEnvelope(w, http.StatusOK, envelope.OK(http.StatusOK, data))
}

// Created writes {"success":true,"code":201,"data":...}.
func Created(w http.ResponseWriter, data any) {
	WriteEnvelope(w, http.StatusCreated, envelope.OK(http.StatusCreated, data))
}

// WriteError maps err onto a failure envelope. Authentication and
// authorization rejections are written with an empty body, the way the
// system under test's security layer answers them.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal error"

	var de *domain.Error
	if errors.As(err, &de) {
		status = StatusFromKind(de.Kind)
		code = de.Code
		message = de.Message
	}

	if status >= http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error().Err(err).Str("code", code).Msg("request failed")
	}

	w.Header().Set(HeaderErrorCode, code)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		w.WriteHeader(status)
		return
	}
	WriteEnvelope(w, status, envelope.Fail(status, message))
}

// StatusFromKind maps domain error kinds to HTTP status codes.
func StatusFromKind(kind domain.ErrKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAssertion:
		return http.StatusConflict
	case domain.KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
