// Package oauth contiene los services del flujo de identidad del bridge:
// reconciliación de members, completado de perfil y emisión de sesiones.
package oauth

import (
	"context"
	"time"

	"github.com/dropDatabas3/memberbridge/internal/domain/repository"
	"github.com/dropDatabas3/memberbridge/internal/identity"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
)

// WelcomeNotifier envía el aviso de bienvenida tras completar el perfil.
type WelcomeNotifier interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// Deps contiene las dependencias para crear los services oauth.
type Deps struct {
	Codec         *jwtx.Codec                 // Token codec (secreto compartido con el bridge)
	Members       repository.MemberRepository // Member store externo
	BridgeBaseURL string                      // Prefijo de los endpoints del bridge
	StoreTimeout  time.Duration               // Límite por llamada al store (0 = sin límite)
	WelcomePath   string                      // Continuación de completado de perfil (default /oauth-welcome)
	Notifier      WelcomeNotifier             // Opcional
}

// Services agrupa todos los services del dominio oauth.
type Services struct {
	Start      StartService
	Callback   CallbackService
	Reconcile  ReconcileService
	Completion CompletionService
	Session    SessionService
	Resolver   *identity.Resolver
}

// NewServices crea el agregador de services oauth.
func NewServices(d Deps) Services {
	resolver := identity.NewResolver(identity.Config{
		BridgeBaseURL: d.BridgeBaseURL,
		StoreTimeout:  d.StoreTimeout,
	}, d.Members)

	sessions := NewSessionService(SessionDeps{Codec: d.Codec})

	reconcile := NewReconcileService(ReconcileDeps{
		Resolver:     resolver,
		Members:      d.Members,
		StoreTimeout: d.StoreTimeout,
	})

	return Services{
		Start: NewStartService(StartDeps{Resolver: resolver}),
		Callback: NewCallbackService(CallbackDeps{
			Codec:       d.Codec,
			Reconcile:   reconcile,
			Sessions:    sessions,
			WelcomePath: d.WelcomePath,
		}),
		Reconcile: reconcile,
		Completion: NewCompletionService(CompletionDeps{
			Codec:        d.Codec,
			Resolver:     resolver,
			Members:      d.Members,
			Sessions:     sessions,
			Notifier:     d.Notifier,
			StoreTimeout: d.StoreTimeout,
		}),
		Session:  sessions,
		Resolver: resolver,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
