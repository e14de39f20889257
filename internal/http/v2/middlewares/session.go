package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/memberbridge/internal/http/v2/errors"
	"github.com/dropDatabas3/memberbridge/internal/http/v2/helpers"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

// SessionParser verifica la credencial de sesión del member.
type SessionParser interface {
	Parse(token string) (*jwtx.SessionClaims, error)
}

// WithMemberSession lee la cookie de sesión y, si es válida, inyecta las claims
// en el contexto. Sin cookie o con cookie inválida el request sigue anónimo.
func WithMemberSession(cookieName string, parser SessionParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie(cookieName)
			if err != nil || ck.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := parser.Parse(ck.Value)
			if err != nil {
				logger.From(r.Context()).Debug("ignoring invalid session cookie", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			ctx := helpers.WithMemberSession(r.Context(), claims)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.MemberID(claims.MemberID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMemberSession responde 401 si WithMemberSession no dejó una sesión.
func RequireMemberSession() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if helpers.MemberSession(r.Context()) == nil {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
