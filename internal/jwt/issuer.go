package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// SessionTTL es la vida fija de la credencial de sesión del member.
const SessionTTL = 30 * 24 * time.Hour

var (
	// ErrInvalidToken cubre firma inválida, formato roto, algoritmo no permitido y expiración.
	// La verificación es binaria: no hay modo "soft".
	ErrInvalidToken = errors.New("invalid token")

	ErrEmptySecret = errors.New("jwt: shared secret is empty")
	ErrInvalidTTL  = errors.New("jwt: ttl must be positive")
)

// Codec firma y verifica tokens HS256 con el secreto compartido con el bridge.
// No hay rotación: cambiar el secreto invalida todos los tokens emitidos.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// Option configura un Codec.
type Option func(*Codec)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// stampable son los claims que el Codec sabe sellar con iat/exp.
type stampable interface {
	jwtv5.Claims
	stamp(issuedAt, expiresAt time.Time)
}

// Sign embebe el payload con iat=now y exp=now+ttl y devuelve el JWT compacto.
func (c *Codec) Sign(claims stampable, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}
	now := c.now()
	claims.stamp(now, now.Add(ttl))

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// SignAssertion firma una aserción de identidad externa (lo que emite el bridge).
// Se usa desde el CLI y en tests; en producción las firma el bridge.
func (c *Codec) SignAssertion(a Assertion, ttl time.Duration) (string, error) {
	return c.Sign(&a, ttl)
}

// SignSession firma una credencial de sesión con el TTL fijo de 30 días.
func (c *Codec) SignSession(s SessionClaims) (string, time.Time, error) {
	tok, err := c.Sign(&s, SessionTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, s.ExpiresAt.Time, nil
}
