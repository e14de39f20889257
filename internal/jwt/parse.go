package jwt

import (
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Verify valida firma (HS256 únicamente), formato y exp, y decodifica en claims.
// Cualquier falla se reporta como ErrInvalidToken; exp es obligatorio y sin tolerancia.
func (c *Codec) Verify(token string, claims jwtv5.Claims) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	keyfunc := func(t *jwtv5.Token) (any, error) {
		return c.secret, nil
	}
	tok, err := jwtv5.ParseWithClaims(token, claims, keyfunc,
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(c.now),
	)
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}

// VerifyAssertion verifica un token del bridge y devuelve la aserción tal cual fue firmada.
// Normalizar es cosa de quien compara.
func (c *Codec) VerifyAssertion(token string) (*Assertion, error) {
	var a Assertion
	if err := c.Verify(token, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// VerifySession verifica una credencial de sesión emitida por este servicio.
// Ambos tokens comparten secreto: sin memberId no es una sesión (p.ej. una assertion).
func (c *Codec) VerifySession(token string) (*SessionClaims, error) {
	var s SessionClaims
	if err := c.Verify(token, &s); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.MemberID) == "" {
		return nil, ErrInvalidToken
	}
	return &s, nil
}
