package http_handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/envelope"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/security"
	http_handlers "github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/handlers"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/router"
)

const secret = "test-secret"

// ---- fakes ----

type fakeProbe struct {
	details map[string]domain.AccountDetails
	status  domain.AccountStatus
	err     error
}

func (f *fakeProbe) AccountDetails(ctx context.Context, email string) (domain.AccountDetails, bool, error) {
	if f.err != nil {
		return domain.AccountDetails{}, false, f.err
	}
	d, ok := f.details[email]
	return d, ok, nil
}

func (f *fakeProbe) Status(ctx context.Context, email string) (domain.AccountStatus, error) {
	return f.status, f.err
}

type fakeSim struct {
	verified []string
	urls     map[string]string
	resetErr error
}

func (f *fakeSim) SimulateVerification(ctx context.Context, email string) error {
	f.verified = append(f.verified, email)
	return nil
}

func (f *fakeSim) VerificationURL(ctx context.Context, email string) (string, error) {
	u, ok := f.urls[email]
	if !ok {
		return "", domain.ErrMissingToken(email)
	}
	return u, nil
}

func (f *fakeSim) SimulatePasswordResetRequest(ctx context.Context, email string) (string, error) {
	if f.resetErr != nil {
		return "", f.resetErr
	}
	return "reset-1", nil
}

func (f *fakeSim) PasswordResetURL(token string) string {
	return "http://localhost:8080/user/changePassword?token=" + token
}

type fakeFixtures struct {
	created []domain.NewAccount
	resets  int
}

func (f *fakeFixtures) CreateAccount(ctx context.Context, in domain.NewAccount) (int64, error) {
	f.created = append(f.created, in)
	return int64(len(f.created)), nil
}

func (f *fakeFixtures) Reset(ctx context.Context) error {
	f.resets++
	return nil
}

type fakePurger struct{ calls int }

func (p *fakePurger) Purge(ctx context.Context) error {
	p.calls++
	return nil
}

type okPinger struct{ err error }

func (p okPinger) Ping(ctx context.Context) error { return p.err }

// ---- helpers ----

type env struct {
	srv      http.Handler
	probe    *fakeProbe
	sim      *fakeSim
	fixtures *fakeFixtures
	mail     *fakePurger
	signer   *security.JWTSigner
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		probe:    &fakeProbe{details: map[string]domain.AccountDetails{}},
		sim:      &fakeSim{urls: map[string]string{}},
		fixtures: &fakeFixtures{},
		mail:     &fakePurger{},
		signer:   security.NewJWTSigner(secret, "account-harness"),
	}
	h, err := router.New(router.Deps{
		Health:  http_handlers.NewHealthHandler(okPinger{}),
		TestAPI: http_handlers.NewTestAPIHandler(e.probe, e.sim, e.fixtures, e.mail),
		AuthMW:  middleware.Auth(e.signer, response.WriteError),
		AdminMW: middleware.RequireAtLeast(domain.RoleAdmin, response.WriteError),
	})
	require.NoError(t, err)
	e.srv = h
	return e
}

func (e *env) token(t *testing.T, role domain.Role) string {
	t.Helper()
	tok, err := e.signer.Sign("ci", role, time.Minute)
	require.NoError(t, err)
	return tok
}

func (e *env) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.srv.ServeHTTP(rr, req)
	return rr.Result()
}

// ---- auth guard ----

func TestTestAPI_RejectsWithoutTokenWithEmptyBody(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodPost, "/test-api/v1/reset", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NoError(t, envelope.CompareResponse(resp, envelope.Fail(http.StatusUnauthorized)))
	assert.Zero(t, e.fixtures.resets)
}

func TestTestAPI_RejectsNonAdminWithEmptyBody(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodPost, "/test-api/v1/reset", e.token(t, domain.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "insufficient_role", resp.Header.Get(response.HeaderErrorCode))
	require.NoError(t, envelope.CompareResponse(resp, envelope.Fail(http.StatusForbidden)))
}

// ---- routes ----

func TestAccountDetails(t *testing.T) {
	e := newEnv(t)
	e.probe.details["a@x.io"] = domain.AccountDetails{FirstName: "Ann", LastName: "Lee", Enabled: true}
	admin := e.token(t, domain.RoleAdmin)

	resp := e.do(t, http.MethodGet, "/test-api/v1/accounts/a%40x.io", admin, nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, e.probe.details["a@x.io"])))

	resp = e.do(t, http.MethodGet, "/test-api/v1/accounts/b@x.io", admin, nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.Fail(http.StatusNotFound, "account not found")))
}

func TestAccountDetails_EmailDecodedOnce(t *testing.T) {
	e := newEnv(t)
	e.probe.details["a%41b@x.io"] = domain.AccountDetails{FirstName: "Literal"}
	e.probe.details["aAb@x.io"] = domain.AccountDetails{FirstName: "Other"}
	e.probe.details["50%off@x.io"] = domain.AccountDetails{FirstName: "Sale"}
	admin := e.token(t, domain.RoleAdmin)

	resp := e.do(t, http.MethodGet, "/test-api/v1/accounts/a%2541b@x.io", admin, nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, e.probe.details["a%41b@x.io"])))

	resp = e.do(t, http.MethodGet, "/test-api/v1/accounts/a%2541b%40x.io", admin, nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, e.probe.details["a%41b@x.io"])))

	resp = e.do(t, http.MethodGet, "/test-api/v1/accounts/50%25off@x.io", admin, nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, e.probe.details["50%off@x.io"])))
}

func TestAccountDetails_LeadingSpaceIsNotTrimmed(t *testing.T) {
	e := newEnv(t)
	e.probe.details["jane@x.io"] = domain.AccountDetails{FirstName: "Jane"}

	resp := e.do(t, http.MethodGet, "/test-api/v1/accounts/%20jane@x.io", e.token(t, domain.RoleAdmin), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_field", resp.Header.Get(response.HeaderErrorCode))
}

func TestAccountDetails_InvalidEmailParam(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodGet, "/test-api/v1/accounts/not-an-email", e.token(t, domain.RoleAdmin), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_field", resp.Header.Get(response.HeaderErrorCode))
}

func TestAccountStatus_QueryFailureIs503(t *testing.T) {
	e := newEnv(t)
	e.probe.err = domain.ErrQueryFailed("count accounts", "a@x.io", errors.New("conn refused"))

	resp := e.do(t, http.MethodGet, "/test-api/v1/accounts/a@x.io/status", e.token(t, domain.RoleAdmin), nil)
	require.NoError(t, envelope.CompareResponse(resp,
		envelope.Fail(http.StatusServiceUnavailable, "count accounts failed for a@x.io")))
}

func TestAccountStatus(t *testing.T) {
	e := newEnv(t)
	e.probe.status = domain.AccountStatus{Exists: true, HasVerificationToken: true}

	resp := e.do(t, http.MethodGet, "/test-api/v1/accounts/a@x.io/status", e.token(t, domain.RoleAdmin), nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, map[string]any{
		"email":                 "a@x.io",
		"exists":                true,
		"enabled":               false,
		"locked":                false,
		"hasVerificationToken":  true,
		"hasPasswordResetToken": false,
	})))
}

func TestCreateAccount(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodPost, "/test-api/v1/accounts", e.token(t, domain.RoleAdmin), map[string]any{
		"email":     "new@x.io",
		"firstName": "New",
		"password":  "pw",
		"roles":     []string{"user"},
	})
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusCreated, map[string]any{
		"id": 1, "email": "new@x.io",
	})))
	require.Len(t, e.fixtures.created, 1)
	assert.Equal(t, []domain.Role{domain.RoleUser}, e.fixtures.created[0].Roles)
}

func TestCreateAccount_Validation(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, domain.RoleAdmin)

	resp := e.do(t, http.MethodPost, "/test-api/v1/accounts", admin, map[string]any{"email": "new@x.io"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing_field", resp.Header.Get(response.HeaderErrorCode))

	resp = e.do(t, http.MethodPost, "/test-api/v1/accounts", admin, map[string]any{"email": "new@x.io", "password": "x", "extra": 1})
	assert.Equal(t, "invalid_json", resp.Header.Get(response.HeaderErrorCode))
	assert.Empty(t, e.fixtures.created)
}

func TestVerifyAndVerificationURL(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, domain.RoleAdmin)
	e.sim.urls["a@x.io"] = "http://localhost:8080/user/registrationConfirm?token=abc"

	resp := e.do(t, http.MethodGet, "/test-api/v1/accounts/a@x.io/verification-url", admin, nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, map[string]any{
		"url": "http://localhost:8080/user/registrationConfirm?token=abc",
	})))

	resp = e.do(t, http.MethodGet, "/test-api/v1/accounts/b@x.io/verification-url", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "missing_token", resp.Header.Get(response.HeaderErrorCode))

	resp = e.do(t, http.MethodPost, "/test-api/v1/accounts/a@x.io/verify", admin, nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, map[string]any{
		"email": "a@x.io", "verified": true,
	})))
	assert.Equal(t, []string{"a@x.io"}, e.sim.verified)
}

func TestPasswordReset(t *testing.T) {
	e := newEnv(t)
	admin := e.token(t, domain.RoleAdmin)

	resp := e.do(t, http.MethodPost, "/test-api/v1/accounts/a@x.io/password-reset", admin, nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, map[string]any{
		"token": "reset-1",
		"url":   "http://localhost:8080/user/changePassword?token=reset-1",
	})))

	e.sim.resetErr = domain.ErrAccountNotFound("ghost@x.io")
	resp = e.do(t, http.MethodPost, "/test-api/v1/accounts/ghost@x.io/password-reset", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReset_TruncatesAndPurgesMail(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodPost, "/test-api/v1/reset", e.token(t, domain.RoleAdmin), nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, map[string]any{"truncated": true})))
	assert.Equal(t, 1, e.fixtures.resets)
	assert.Equal(t, 1, e.mail.calls)
}

// ---- health ----

func TestHealth(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodGet, "/healthz", "", nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, map[string]any{"status": "ok"})))

	resp = e.do(t, http.MethodGet, "/readyz", "", nil)
	require.NoError(t, envelope.CompareResponse(resp, envelope.OK(http.StatusOK, map[string]any{"status": "ready"})))
}

func TestReadyz_DatabaseDown(t *testing.T) {
	h := http_handlers.NewHealthHandler(okPinger{err: errors.New("down")})
	rr := httptest.NewRecorder()
	h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NoError(t, envelope.Compare(rr.Code, rr.Body.Bytes(),
		envelope.Fail(http.StatusServiceUnavailable, "database unavailable")))
}
