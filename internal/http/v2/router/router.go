// Package router contains the V2 route aggregator.
package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/memberbridge/internal/http/v2/controllers"
	httperrors "github.com/dropDatabas3/memberbridge/internal/http/v2/errors"
	mw "github.com/dropDatabas3/memberbridge/internal/http/v2/middlewares"
	"github.com/dropDatabas3/memberbridge/internal/metrics"
)

// Deps contains all dependencies for the V2 router.
type Deps struct {
	Prefix      string // ej: /members/api/oauth
	SigninPath  string
	CookieName  string
	Controllers *controllers.Controllers
	Sessions    mw.SessionParser
	RateLimiter mw.RateLimiter   // Opcional
	Metrics     *metrics.Metrics // Opcional: instrumenta y expone /metrics
}

// New arma el router chi con todas las rutas V2.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.WithRecover(), mw.WithRequestID())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Health y métricas: sin logging (muy frecuentes)
	r.Get("/healthz", d.Controllers.Health.Healthz)
	r.Get("/readyz", d.Controllers.Health.Readyz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	prefix := "/" + strings.Trim(d.Prefix, "/")
	r.Route(prefix, func(r chi.Router) {
		registerOAuthRoutes(r, d)
	})
	return r
}

func registerOAuthRoutes(r chi.Router, d Deps) {
	c := d.Controllers.OAuth

	r.Use(
		mw.WithSecurityHeaders(),
		mw.WithNoStore(),
		mw.WithLogging(),
		mw.WithMemberSession(d.CookieName, d.Sessions),
	)

	// GET|POST {prefix}/{provider}/init
	r.With(limited(d, httperrors.SigninOAuthInitFailed)).
		Method(http.MethodGet, "/{provider}/init", http.HandlerFunc(c.Start.Init))
	r.With(limited(d, httperrors.SigninOAuthInitFailed)).
		Method(http.MethodPost, "/{provider}/init", http.HandlerFunc(c.Start.Init))

	// GET {prefix}/callback
	r.With(limited(d, httperrors.SigninOAuthFailed)).Get("/callback", c.Callback.Callback)

	// POST {prefix}/complete-profile
	r.With(limited(d, httperrors.SigninProfileFailed)).Post("/complete-profile", c.Completion.Complete)

	// GET {prefix}/session (requiere cookie válida)
	r.With(mw.RequireMemberSession()).Get("/session", c.Session.Get)

	// POST {prefix}/logout
	r.Post("/logout", c.Session.Logout)

	if c.CivicAction != nil {
		r.Get("/civic-actions/{source}/{actionId}", c.CivicAction.Get)
		r.Post("/civic-actions/{source}/{actionId}/click", c.CivicAction.Click)
	}
}

// limited aplica el rate limit del flujo; al exceder redirige a sign-in con el código del paso.
func limited(d Deps, code string) func(http.Handler) http.Handler {
	return mw.WithRateLimit(mw.RateLimitConfig{
		Limiter: d.RateLimiter,
		OnLimited: func(w http.ResponseWriter, r *http.Request) {
			httperrors.RedirectSignin(w, r, d.SigninPath, code)
		},
	})
}
