package helpers

import (
	"context"
	"net"
	"net/http"
	"strings"

	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
)

type ctxHTTPKey string

const (
	ctxRequestIDKey ctxHTTPKey = "request_id"
	ctxSessionKey   ctxHTTPKey = "member_session"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithMemberSession guarda la sesión verificada del member en el contexto.
func WithMemberSession(ctx context.Context, s *jwtx.SessionClaims) context.Context {
	return context.WithValue(ctx, ctxSessionKey, s)
}

// MemberSession devuelve la sesión verificada, o nil si no hay.
func MemberSession(ctx context.Context) *jwtx.SessionClaims {
	if v, ok := ctx.Value(ctxSessionKey).(*jwtx.SessionClaims); ok {
		return v
	}
	return nil
}

// ClientIP: último hop de X-Forwarded-For (el que agrega nuestro proxy), si no
// X-Real-IP, si no RemoteAddr. Los hops anteriores los controla el cliente.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if ip := strings.TrimSpace(hops[len(hops)-1]); ip != "" {
			return ip
		}
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		return xr
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormBool interpreta checkboxes y flags: "on", "true", "1".
func FormBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
