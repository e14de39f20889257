package jwt

import (
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Assertion es la identidad externa firmada por el bridge.
// Se consume una vez para reconciliar el member y viaja sin cambios dentro de la
// sesión; debe poder re-verificarse sola, sin lookups.
type Assertion struct {
	Provider string `json:"provider"`
	DID      string `json:"did,omitempty"`    // solo atproto
	Handle   string `json:"handle,omitempty"` // solo atproto
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	jwtv5.RegisteredClaims
}

func (a *Assertion) stamp(issuedAt, expiresAt time.Time) {
	a.IssuedAt = jwtv5.NewNumericDate(issuedAt)
	a.ExpiresAt = jwtv5.NewNumericDate(expiresAt)
}

// HasEmail indica si la identidad externa trae un email real.
func (a *Assertion) HasEmail() bool { return strings.TrimSpace(a.Email) != "" }

// DisplayName: name, si no handle. Recortado; el payload no se toca.
func (a *Assertion) DisplayName() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return strings.TrimSpace(a.Handle)
}

// SessionClaims es el payload de la credencial de sesión del member.
type SessionClaims struct {
	MemberID string `json:"memberId"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	DID      string `json:"did,omitempty"`
	Handle   string `json:"handle,omitempty"`
	Provider string `json:"provider"`
	jwtv5.RegisteredClaims
}

func (s *SessionClaims) stamp(issuedAt, expiresAt time.Time) {
	s.IssuedAt = jwtv5.NewNumericDate(issuedAt)
	s.ExpiresAt = jwtv5.NewNumericDate(expiresAt)
}
