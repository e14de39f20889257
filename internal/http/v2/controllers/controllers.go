// Package controllers agrupa todos los controllers HTTP V2.
// Este es el "composition root" de controllers.
//
// ═══════════════════════════════════════════════════════════════════════════════
// FLUJO DE INICIALIZACIÓN (cascada de dependencias)
// ═══════════════════════════════════════════════════════════════════════════════
//
//	┌───────────────────────────────────────────────────────────────────────────┐
//	│  server/wiring.go                                                         │
//	│                                                                           │
//	│  1. svcs := oauthsvc.NewServices(deps) ← Services del flujo de identidad  │
//	│           ▼                                                               │
//	│  2. ctrls := controllers.New(deps)     ← Controllers con services         │
//	│           ▼                                                               │
//	│  3. router.New(router.Deps{...})       ← Rutas chi con controllers        │
//	│           ▼                                                               │
//	│  4. srv.ListenAndServe()               ← Iniciar servidor                 │
//	└───────────────────────────────────────────────────────────────────────────┘
//
// ═══════════════════════════════════════════════════════════════════════════════
package controllers

import (
	"github.com/dropDatabas3/memberbridge/internal/http/v2/controllers/health"
	"github.com/dropDatabas3/memberbridge/internal/http/v2/controllers/oauth"
	healthsvc "github.com/dropDatabas3/memberbridge/internal/http/v2/services/health"
)

// Deps son los services ya construidos que consumen los controllers.
type Deps struct {
	OAuth  oauth.Deps
	Health healthsvc.HealthService
}

// Controllers agrupa todos los sub-controllers por dominio.
type Controllers struct {
	OAuth  *oauth.Controllers        // Flujo de identidad (init, callback, complete-profile, session)
	Health *health.HealthController // Health checks (healthz, readyz)
}

// New crea el agregador de controllers.
// Este es el único lugar donde se instancian los controllers.
func New(d Deps) *Controllers {
	return &Controllers{
		OAuth:  oauth.NewControllers(d.OAuth),
		Health: health.NewHealthController(d.Health),
	}
}
