package main

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, env map[string]string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd(func(k string) string { return env[k] })
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(stdout.String()), stderr.String(), err
}

func TestTokenSignThenVerify(t *testing.T) {
	env := map[string]string{"SHARED_JWT_SECRET": "cli-secret"}

	tok, stderr, err := run(t, env, "token", "sign", "--provider", "atproto", "--did", "did:plc:1", "--handle", "a.example")
	require.NoError(t, err)
	require.Empty(t, stderr)

	out, _, err := run(t, env, "token", "verify", tok)
	require.NoError(t, err)
	require.Contains(t, out, `"did": "did:plc:1"`)

	_, _, err = run(t, map[string]string{"SHARED_JWT_SECRET": "other"}, "token", "verify", tok)
	require.Error(t, err)
}

func TestTokenSign_WarnsOnDefaultSecret(t *testing.T) {
	_, stderr, err := run(t, nil, "token", "sign", "--provider", "google", "--email", "a@example.com")
	require.NoError(t, err)
	require.Contains(t, stderr, "WARNING")
}

func TestTokenSign_CallbackURL(t *testing.T) {
	out, _, err := run(t, map[string]string{"SHARED_JWT_SECRET": "s"},
		"--service-url", "http://svc.test", "token", "sign", "--provider", "Google", "--email", "a@example.com", "--callback-url")
	require.NoError(t, err)

	u, err := url.Parse(out)
	require.NoError(t, err)
	require.Equal(t, "/members/api/oauth/callback", u.Path)
	require.Equal(t, "google", u.Query().Get("provider"))
	require.NotEmpty(t, u.Query().Get("token"))
}

func TestAuthURL(t *testing.T) {
	out, _, err := run(t, nil, "--bridge-url", "https://bridge.example", "auth-url", "--provider", "atproto", "--handle", "x.bsky.social")
	require.NoError(t, err)
	require.Equal(t, "https://bridge.example/api/auth/atproto/init?handle=x.bsky.social&ghost_callback=true", out)

	_, _, err = run(t, nil, "auth-url", "--provider", "atproto")
	require.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	out, _, err := run(t, nil, "placeholder", "did:plc:abc")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out, "@atproto.local"), out)
}

func TestGenSecret(t *testing.T) {
	out, _, err := run(t, nil, "gen", "secret")
	require.NoError(t, err)
	b, err := base64.RawURLEncoding.DecodeString(out)
	require.NoError(t, err)
	require.Len(t, b, 32)

	_, _, err = run(t, nil, "gen", "secret", "--bytes", "8")
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/readyz", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}))
	defer srv.Close()

	out, _, err := run(t, nil, "--service-url", srv.URL, "ping")
	require.NoError(t, err)
	require.Equal(t, "ok", out)

	out, _, err = run(t, nil, "--service-url", srv.URL, "--out", "json", "ping")
	require.NoError(t, err)
	require.Contains(t, out, `"status": "ready"`)
}
