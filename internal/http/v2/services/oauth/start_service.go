package oauth

import (
	"context"

	"github.com/dropDatabas3/memberbridge/internal/identity"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

// StartService resuelve a dónde redirigir para iniciar el handshake con el bridge.
type StartService interface {
	AuthURL(ctx context.Context, provider, handle string) (string, error)
}

// StartDeps contains dependencies for the start service.
type StartDeps struct {
	Resolver *identity.Resolver
}

type startService struct {
	resolver *identity.Resolver
}

// NewStartService creates a new StartService.
func NewStartService(d StartDeps) StartService {
	return &startService{resolver: d.Resolver}
}

func (s *startService) AuthURL(ctx context.Context, provider, handle string) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.start"),
		logger.Op("AuthURL"),
		logger.Provider(identity.NormalizeProvider(provider)),
	)

	u, err := s.resolver.AuthURL(provider, handle)
	if err != nil {
		log.Warn("cannot resolve bridge url", logger.Err(err))
		return "", err
	}
	log.Debug("bridge url resolved")
	return u, nil
}
