package oauth

import (
	"errors"
	"time"

	"github.com/dropDatabas3/memberbridge/internal/domain/repository"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
)

// SessionCredential es la credencial firmada que se entrega al transporte (cookie).
type SessionCredential struct {
	Token     string
	ExpiresAt time.Time
	Claims    jwtx.SessionClaims
}

// SessionService emite y verifica credenciales de sesión de members.
type SessionService interface {
	Issue(member *repository.Member, assertion *jwtx.Assertion) (*SessionCredential, error)
	Parse(token string) (*jwtx.SessionClaims, error)
}

// SessionDeps contains dependencies for the session service.
type SessionDeps struct {
	Codec *jwtx.Codec
}

type sessionService struct {
	codec *jwtx.Codec
}

// NewSessionService creates a new SessionService.
func NewSessionService(d SessionDeps) SessionService {
	return &sessionService{codec: d.Codec}
}

// Issue liga la sesión al member local y a los atributos originales de la identidad externa.
// Vida fija: jwtx.SessionTTL.
func (s *sessionService) Issue(member *repository.Member, a *jwtx.Assertion) (*SessionCredential, error) {
	if member == nil || a == nil {
		return nil, errors.New("session: member and assertion are required")
	}
	claims := jwtx.SessionClaims{
		MemberID: member.ID,
		Email:    member.Email,
		Name:     member.Name,
		DID:      a.DID,
		Handle:   a.Handle,
		Provider: a.Provider,
	}
	tok, exp, err := s.codec.SignSession(claims)
	if err != nil {
		return nil, err
	}
	return &SessionCredential{Token: tok, ExpiresAt: exp, Claims: claims}, nil
}

func (s *sessionService) Parse(token string) (*jwtx.SessionClaims, error) {
	return s.codec.VerifySession(token)
}
