package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/memberbridge/internal/http/v2/helpers"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
	"github.com/dropDatabas3/memberbridge/internal/rate"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = helpers.RequestID(r.Context())
	}), WithRequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := serve(h, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	require.Equal(t, "abc-123", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	rec = serve(h, req)
	require.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestWithRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), WithRecover())
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWithNoStore(t *testing.T) {
	rec := serve(Chain(ok, WithNoStore()), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

type stubLimiter struct {
	res rate.Result
	err error
}

func (s stubLimiter) Allow(context.Context, string) (rate.Result, error) { return s.res, s.err }

func TestWithRateLimit(t *testing.T) {
	t.Run("denied writes 429", func(t *testing.T) {
		h := Chain(ok, WithRateLimit(RateLimitConfig{Limiter: stubLimiter{res: rate.Result{RetryAfter: 3 * time.Second}}}))
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "3", rec.Header().Get("Retry-After"))
	})
	t.Run("denied uses OnLimited", func(t *testing.T) {
		h := Chain(ok, WithRateLimit(RateLimitConfig{
			Limiter:   stubLimiter{},
			OnLimited: func(w http.ResponseWriter, r *http.Request) { http.Redirect(w, r, "/signin", http.StatusFound) },
		}))
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusFound, rec.Code)
	})
	t.Run("limiter error fails open", func(t *testing.T) {
		h := Chain(ok, WithRateLimit(RateLimitConfig{Limiter: stubLimiter{err: errors.New("redis down")}}))
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("allowed", func(t *testing.T) {
		h := Chain(ok, WithRateLimit(RateLimitConfig{Limiter: stubLimiter{res: rate.Result{Allowed: true, Remaining: 4}}}))
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	})
}

func TestDefaultRateKey_IgnoresClientSuppliedHops(t *testing.T) {
	keys := map[string]struct{}{}
	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodGet, "/callback", nil)
		req.Header.Set("X-Forwarded-For", spoofed+", 198.51.100.7")
		keys[DefaultRateKey(req)] = struct{}{}
	}
	require.Equal(t, map[string]struct{}{"198.51.100.7|/callback": {}}, keys)
}

type parserFunc func(string) (*jwtx.SessionClaims, error)

func (f parserFunc) Parse(tok string) (*jwtx.SessionClaims, error) { return f(tok) }

func TestMemberSession(t *testing.T) {
	parser := parserFunc(func(tok string) (*jwtx.SessionClaims, error) {
		if tok != "good" {
			return nil, jwtx.ErrInvalidToken
		}
		return &jwtx.SessionClaims{MemberID: "m1"}, nil
	})
	h := Chain(ok, WithMemberSession("sid", parser), RequireMemberSession())

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "bad"})
	require.Equal(t, http.StatusUnauthorized, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "good"})
	require.Equal(t, http.StatusOK, serve(h, req).Code)
}

func TestWithSecurityHeaders(t *testing.T) {
	h := Chain(ok, WithSecurityHeaders())

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/callback?token=x", nil))
	require.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	require.NotEmpty(t, serve(h, req).Header().Get("Strict-Transport-Security"))
}
