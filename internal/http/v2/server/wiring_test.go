package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/memberbridge/internal/config"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
	"github.com/dropDatabas3/memberbridge/internal/store/memory"
)

const (
	testSecret = "wiring-test-secret"
	prefix     = "/members/api/oauth"
	cookieName = "ghost-members-ssr"
)

type captureSender struct {
	mu  sync.Mutex
	to  []string
	err error
}

func (c *captureSender) Send(_ context.Context, to, _, _, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.to = append(c.to, to)
	return c.err
}

type env struct {
	handler http.Handler
	members *memory.MemberStore
	sender  *captureSender
	codec   *jwtx.Codec
}

func newEnv(t *testing.T, mutate func(*config.Config)) *env {
	t.Helper()
	for _, k := range []string{"APP_ENV", "STORE_DRIVER", "RATE_ENABLED", "RATE_DRIVER", "SMTP_HOST", "SESSION_COOKIE_NAME", "BRIDGE_URL"} {
		t.Setenv(k, "")
	}
	t.Setenv("SHARED_JWT_SECRET", testSecret)
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Bridge.BaseURL = "http://bridge.test"
	if mutate != nil {
		mutate(cfg)
	}

	e := &env{members: memory.NewMemberStore(), sender: &captureSender{}}
	h, cleanup, err := BuildV2Handler(context.Background(), cfg, Options{
		Registry: prometheus.NewRegistry(),
		Members:  e.members,
		Sender:   e.sender,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	e.handler = h

	e.codec, err = jwtx.NewCodec(testSecret)
	require.NoError(t, err)
	return e
}

func (e *env) token(t *testing.T, a jwtx.Assertion) string {
	t.Helper()
	tok, err := e.codec.SignAssertion(a, 10*time.Minute)
	require.NoError(t, err)
	return tok
}

func (e *env) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *env) callback(t *testing.T, a jwtx.Assertion) *httptest.ResponseRecorder {
	t.Helper()
	q := url.Values{"token": {e.token(t, a)}, "provider": {a.Provider}}
	return e.do(httptest.NewRequest(http.MethodGet, prefix+"/callback?"+q.Encode(), nil))
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", cookieName)
	return nil
}

func TestFlow_EmailProviderSignsInDirectly(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.callback(t, jwtx.Assertion{Provider: "google", Email: "ana@example.com", Name: "Ana"})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	ck := sessionCookie(t, rec)
	require.True(t, ck.HttpOnly)
	require.Equal(t, 1, e.members.Len())

	rec = e.do(httptest.NewRequest(http.MethodGet, prefix+"/session", nil), ck)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ana@example.com", body["email"])
	require.Equal(t, "google", body["provider"])
}

func TestFlow_ATProtoCompletesProfile(t *testing.T) {
	e := newEnv(t, nil)
	a := jwtx.Assertion{Provider: "atproto", DID: "did:plc:xyz", Handle: "bob.example"}

	rec := e.callback(t, a)
	require.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/oauth-welcome?token="), loc)
	require.Empty(t, rec.Result().Cookies())

	u, err := url.Parse(loc)
	require.NoError(t, err)
	form := url.Values{
		"token":     {u.Query().Get("token")},
		"email":     {"bob@example.com"},
		"subscribe": {"on"},
	}
	req := httptest.NewRequest(http.MethodPost, prefix+"/complete-profile", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = e.do(req)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	ck := sessionCookie(t, rec)
	require.Equal(t, []string{"bob@example.com"}, e.sender.to)

	rec = e.do(httptest.NewRequest(http.MethodGet, prefix+"/session", nil), ck)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"email":"bob@example.com"`)
	require.Contains(t, rec.Body.String(), `"did":"did:plc:xyz"`)
}

func TestFlow_FailuresRedirectToSignin(t *testing.T) {
	e := newEnv(t, nil)

	cases := []struct {
		name string
		req  *http.Request
		want string
	}{
		{
			name: "callback with forged token",
			req:  httptest.NewRequest(http.MethodGet, prefix+"/callback?token=nope&provider=google", nil),
			want: "/signin?error=oauth_failed",
		},
		{
			name: "callback without params",
			req:  httptest.NewRequest(http.MethodGet, prefix+"/callback", nil),
			want: "/signin?error=oauth_failed",
		},
		{
			name: "atproto init without handle",
			req:  httptest.NewRequest(http.MethodGet, prefix+"/atproto/init", nil),
			want: "/signin?error=oauth_init_failed",
		},
		{
			name: "unknown provider",
			req:  httptest.NewRequest(http.MethodGet, prefix+"/github/init", nil),
			want: "/signin?error=oauth_init_failed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(tc.req)
			require.Equal(t, http.StatusFound, rec.Code)
			require.Equal(t, tc.want, rec.Header().Get("Location"))
		})
	}

	t.Run("complete-profile with bad email", func(t *testing.T) {
		tok := e.token(t, jwtx.Assertion{Provider: "atproto", DID: "did:plc:q", Handle: "q.example"})
		form := url.Values{"token": {tok}, "email": {"not-an-email"}}
		req := httptest.NewRequest(http.MethodPost, prefix+"/complete-profile", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := e.do(req)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/signin?error=profile_failed", rec.Header().Get("Location"))
	})
}

func TestInit_RedirectsToBridge(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(httptest.NewRequest(http.MethodGet, prefix+"/google/init", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "http://bridge.test/api/auth/google", rec.Header().Get("Location"))

	form := url.Values{"handle": {"carol.bsky.social"}}
	req := httptest.NewRequest(http.MethodPost, prefix+"/atproto/init", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = e.do(req)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t,
		"http://bridge.test/api/auth/atproto/init?handle=carol.bsky.social&ghost_callback=true",
		rec.Header().Get("Location"))
}

func TestSession_AnonymousAndLogout(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(httptest.NewRequest(http.MethodGet, prefix+"/session", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(httptest.NewRequest(http.MethodGet, prefix+"/session", nil), &http.Cookie{Name: cookieName, Value: "garbage"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(httptest.NewRequest(http.MethodPost, prefix+"/logout", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	ck := sessionCookie(t, rec)
	require.Less(t, ck.MaxAge, 0)
}

func TestRateLimit_RedirectsWithStepCode(t *testing.T) {
	e := newEnv(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.MaxRequests = 1
	})

	rec := e.callback(t, jwtx.Assertion{Provider: "google", Email: "dan@example.com"})
	require.Equal(t, "/", rec.Header().Get("Location"))

	rec = e.callback(t, jwtx.Assertion{Provider: "google", Email: "dan@example.com"})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/signin?error=oauth_failed", rec.Header().Get("Location"))
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestOpsEndpoints(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"member_store":{"status":"ok"}`)

	_ = e.callback(t, jwtx.Assertion{Provider: "google", Email: "eve@example.com"})

	rec = e.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	b, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(b), `memberbridge_flow_total{outcome="session",provider="google",stage="callback"} 1`)
	require.Contains(t, string(b), `memberbridge_members_created_total{provider="google"} 1`)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_UnknownProvidersShareOneSeries(t *testing.T) {
	e := newEnv(t, nil)

	for i := 0; i < 20; i++ {
		rec := e.do(httptest.NewRequest(http.MethodGet, prefix+"/evil"+strconv.Itoa(i)+"/init", nil))
		require.Equal(t, "/signin?error=oauth_init_failed", rec.Header().Get("Location"))
	}

	rec := e.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, `memberbridge_flow_total{outcome="failed",provider="unknown",stage="init"} 20`)
	require.NotContains(t, body, "evil")
}
