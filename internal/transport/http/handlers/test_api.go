package http_handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/response"
)

type AccountProbe interface {
	AccountDetails(ctx context.Context, email string) (domain.AccountDetails, bool, error)
	Status(ctx context.Context, email string) (domain.AccountStatus, error)
}

type VerificationSimulator interface {
	SimulateVerification(ctx context.Context, email string) error
	VerificationURL(ctx context.Context, email string) (string, error)
	SimulatePasswordResetRequest(ctx context.Context, email string) (string, error)
	PasswordResetURL(token string) string
}

type FixtureWriter interface {
	CreateAccount(ctx context.Context, in domain.NewAccount) (int64, error)
	Reset(ctx context.Context) error
}

// MailPurger is implemented by notifiers that keep captured mail around.
type MailPurger interface {
	Purge(ctx context.Context) error
}

// TestAPIHandler exposes the probe, simulator and fixtures over HTTP for
// suites that cannot link the Go packages.
type TestAPIHandler struct {
	probe    AccountProbe
	sim      VerificationSimulator
	fixtures FixtureWriter
	mail     MailPurger
}

func NewTestAPIHandler(probe AccountProbe, sim VerificationSimulator, fixtures FixtureWriter, mail MailPurger) *TestAPIHandler {
	return &TestAPIHandler{probe: probe, sim: sim, fixtures: fixtures, mail: mail}
}

// AccountDetails handles GET /accounts/{email}
func (h *TestAPIHandler) AccountDetails(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	d, found, err := h.probe.AccountDetails(r.Context(), email)
	if err == nil && !found {
		err = domain.ErrAccountNotFound(email)
	}
	observe("account_details", err)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, d)
}

// AccountStatus handles GET /accounts/{email}/status
func (h *TestAPIHandler) AccountStatus(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	st, err := h.probe.Status(r.Context(), email)
	observe("account_status", err)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.AccountStatusView{
		Email:                 email,
		Exists:                st.Exists,
		Enabled:               st.Enabled,
		Locked:                st.Locked,
		HasVerificationToken:  st.HasVerificationToken,
		HasPasswordResetToken: st.HasPasswordResetToken,
	})
}

// CreateAccount handles POST /accounts
func (h *TestAPIHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	id, err := h.fixtures.CreateAccount(r.Context(), req.ToDomain())
	observe("create_account", err)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Int64("account_id", id).
		Str("email", req.Email).
		Bool("enabled", req.Enabled).
		Msg("fixture_account_created")

	response.Created(w, dto.AccountCreated{ID: id, Email: req.Email})
}

// Verify handles POST /accounts/{email}/verify
func (h *TestAPIHandler) Verify(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	err := h.sim.SimulateVerification(r.Context(), email)
	observe("simulate_verification", err)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.VerifiedView{Email: email, Verified: true})
}

// VerificationURL handles GET /accounts/{email}/verification-url
func (h *TestAPIHandler) VerificationURL(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	u, err := h.sim.VerificationURL(r.Context(), email)
	observe("verification_url", err)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.URLView{URL: u})
}

// PasswordReset handles POST /accounts/{email}/password-reset
func (h *TestAPIHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	token, err := h.sim.SimulatePasswordResetRequest(r.Context(), email)
	observe("password_reset", err)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.PasswordResetView{Token: token, URL: h.sim.PasswordResetURL(token)})
}

// Reset handles POST /reset
func (h *TestAPIHandler) Reset(w http.ResponseWriter, r *http.Request) {
	err := h.fixtures.Reset(r.Context())
	if err == nil && h.mail != nil {
		err = h.mail.Purge(r.Context())
	}
	observe("reset", err)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	caller, _ := middleware.SubjectFromContext(r.Context())
	logger.WithCtx(r.Context()).Warn().Str("caller", caller).Msg("harness_tables_truncated")
	response.OK(w, dto.ResetView{Truncated: true})
}

// emailParam reads and validates {email}. chi routes on RawPath when it is
// set and on the decoded Path otherwise, so the segment is unescaped only in
// the first case. On failure it has already written the response.
func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := chi.URLParam(r, "email")
	if r.URL.RawPath != "" {
		var err error
		email, err = url.PathUnescape(email)
		if err != nil {
			response.WriteError(w, r, domain.ErrInvalidField("email", "invalid escape"))
			return "", false
		}
	}

	p := dto.EmailParam{Email: email}
	if err := p.Validate(); err != nil {
		response.WriteError(w, r, err)
		return "", false
	}
	return p.Email, true
}

func observe(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case domain.Is(err, "account_not_found"), domain.Is(err, "missing_token"):
		result = "not_found"
	default:
		result = "failed"
	}
	middleware.OperationsTotal.WithLabelValues(op, result).Inc()
}
