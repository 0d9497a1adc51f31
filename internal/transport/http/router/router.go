package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/middleware"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type TestAPIHandler interface {
	AccountDetails(w http.ResponseWriter, r *http.Request)
	AccountStatus(w http.ResponseWriter, r *http.Request)
	CreateAccount(w http.ResponseWriter, r *http.Request)
	Verify(w http.ResponseWriter, r *http.Request)
	VerificationURL(w http.ResponseWriter, r *http.Request)
	PasswordReset(w http.ResponseWriter, r *http.Request)
	Reset(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health  HealthHandler
	TestAPI TestAPIHandler

	AuthMW  func(http.Handler) http.Handler
	AdminMW func(http.Handler) http.Handler
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.TestAPI == nil {
		return nil, fmt.Errorf("nil TestAPI handler")
	}
	if deps.AuthMW == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}
	if deps.AdminMW == nil {
		return nil, fmt.Errorf("nil Admin middleware")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/test-api/v1", func(r chi.Router) {
		r.Use(deps.AuthMW)
		r.Use(deps.AdminMW)

		r.Post("/accounts", deps.TestAPI.CreateAccount)
		r.Get("/accounts/{email}", deps.TestAPI.AccountDetails)
		r.Get("/accounts/{email}/status", deps.TestAPI.AccountStatus)
		r.Post("/accounts/{email}/verify", deps.TestAPI.Verify)
		r.Get("/accounts/{email}/verification-url", deps.TestAPI.VerificationURL)
		r.Post("/accounts/{email}/password-reset", deps.TestAPI.PasswordReset)

		r.Post("/reset", deps.TestAPI.Reset)
	})

	return r, nil
}
