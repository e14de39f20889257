package helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
)

func TestSessionCookie(t *testing.T) {
	ck := SessionCookie("ghost-members-ssr", "tok", "", false)
	require.Equal(t, "ghost-members-ssr", ck.Name)
	require.Equal(t, "tok", ck.Value)
	require.Equal(t, "/", ck.Path)
	require.True(t, ck.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	require.Equal(t, int((30 * 24 * time.Hour).Seconds()), ck.MaxAge)
	require.Empty(t, ck.Domain)

	ck = SessionCookie("s", "tok", "example.com", true)
	require.True(t, ck.Secure)
	require.Equal(t, "example.com", ck.Domain)
}

func TestBuildDeletionCookie(t *testing.T) {
	ck := BuildDeletionCookie("s", "", "lax", false)
	require.Equal(t, -1, ck.MaxAge)
	require.Empty(t, ck.Value)
}

func TestFormBool(t *testing.T) {
	for _, v := range []string{"on", "true", "1", "TRUE", " yes "} {
		require.True(t, FormBool(v), v)
	}
	for _, v := range []string{"", "off", "0", "false", "nope"} {
		require.False(t, FormBool(v), v)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	require.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	require.Equal(t, "10.0.0.2", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	require.Equal(t, "203.0.113.9", ClientIP(r))

	// El cliente puede anteponer hops falsos; solo cuenta el que agregó el proxy.
	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		r.Header.Set("X-Forwarded-For", spoofed+", 198.51.100.7")
		require.Equal(t, "198.51.100.7", ClientIP(r))
	}
}

func TestMemberSessionContext(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, MemberSession(ctx))

	s := &jwtx.SessionClaims{MemberID: "m1"}
	require.Same(t, s, MemberSession(WithMemberSession(ctx, s)))
	require.Equal(t, "rid", RequestID(WithRequestID(ctx, "rid")))
}
