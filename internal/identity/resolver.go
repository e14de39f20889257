// Package identity mapea identidades externas del bridge a members locales.
//
// La única clave de join es el email canónico (real o placeholder). No hay
// matching por nombre ni handle.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/memberbridge/internal/domain/repository"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
)

// Providers soportados por el bridge.
const (
	ProviderGoogle  = "google"
	ProviderATProto = "atproto"
)

var (
	ErrUnsupportedProvider      = errors.New("unsupported oauth provider")
	ErrMissingHandle            = errors.New("handle required")
	ErrMissingSubjectIdentifier = errors.New("assertion carries neither email nor did")
)

// NormalizeProvider devuelve el nombre de provider en minúsculas y sin espacios.
func NormalizeProvider(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

// RequiresHandle reporta si el provider necesita un handle para iniciar.
func RequiresHandle(provider string) bool {
	return NormalizeProvider(provider) == ProviderATProto
}

// Config del resolver. Se pasa explícito; nada se lee del entorno.
type Config struct {
	BridgeBaseURL string
	StoreTimeout  time.Duration
}

// Resolver resuelve URLs de inicio y members existentes.
type Resolver struct {
	bridgeBase string
	members    repository.MemberRepository
	timeout    time.Duration
}

// NewResolver crea un Resolver. members puede ser nil si solo se usa AuthURL.
func NewResolver(cfg Config, members repository.MemberRepository) *Resolver {
	return &Resolver{
		bridgeBase: strings.TrimRight(strings.TrimSpace(cfg.BridgeBaseURL), "/"),
		members:    members,
		timeout:    cfg.StoreTimeout,
	}
}

// AuthURL devuelve el endpoint del bridge que inicia el handshake del provider.
func (r *Resolver) AuthURL(provider, handle string) (string, error) {
	switch NormalizeProvider(provider) {
	case ProviderGoogle:
		return r.bridgeBase + "/api/auth/google", nil
	case ProviderATProto:
		handle = strings.TrimSpace(handle)
		if handle == "" {
			return "", ErrMissingHandle
		}
		return r.bridgeBase + "/api/auth/atproto/init?handle=" + escapeComponent(handle) + "&ghost_callback=true", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
}

// escapeComponent percent-encodea un valor de query; el espacio va como %20, no "+".
func escapeComponent(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// FindExistingMember busca por coincidencia exacta de email canónico.
// Ausencia no es error: devuelve (nil, nil).
func (r *Resolver) FindExistingMember(ctx context.Context, email string) (*repository.Member, error) {
	if r.members == nil {
		return nil, errors.New("identity: member repository not configured")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	m, err := r.members.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// Resolve combina CanonicalEmail + FindExistingMember.
func (r *Resolver) Resolve(ctx context.Context, a *jwtx.Assertion) (string, *repository.Member, error) {
	email, err := CanonicalEmail(a)
	if err != nil {
		return "", nil, err
	}
	m, err := r.FindExistingMember(ctx, email)
	if err != nil {
		return email, nil, err
	}
	return email, m, nil
}
