// Package oauth contiene los controllers HTTP del flujo de identidad del bridge.
package oauth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/memberbridge/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/memberbridge/internal/http/v2/services/oauth"
	"github.com/dropDatabas3/memberbridge/internal/metrics"
)

// CivicActions es el cliente del bridge para civic actions.
type CivicActions interface {
	CivicAction(ctx context.Context, source, actionID string) (json.RawMessage, error)
	ReportClick(ctx context.Context, source, actionID string) error
}

// Settings son las rutas y la cookie de sesión que usan los controllers.
type Settings struct {
	SigninPath   string
	HomePath     string
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

func (s Settings) withDefaults() Settings {
	if s.SigninPath == "" {
		s.SigninPath = "/signin"
	}
	if s.HomePath == "" {
		s.HomePath = "/"
	}
	if s.CookieName == "" {
		s.CookieName = "ghost-members-ssr"
	}
	return s
}

func (s Settings) sessionCookie(token string) *http.Cookie {
	return helpers.SessionCookie(s.CookieName, token, s.CookieDomain, s.CookieSecure)
}

// Deps contiene las dependencias de los controllers oauth.
type Deps struct {
	Services svc.Services
	Bridge   CivicActions     // opcional: sin bridge no se montan las rutas de civic actions
	Metrics  *metrics.Metrics // opcional
	Settings Settings
}

// Controllers agrupa los controllers del dominio oauth.
type Controllers struct {
	Start       *StartController
	Callback    *CallbackController
	Completion  *CompletionController
	Session     *SessionController
	CivicAction *CivicActionController
}

// NewControllers crea el aggregator de controllers oauth.
func NewControllers(d Deps) *Controllers {
	st := d.Settings.withDefaults()
	c := &Controllers{
		Start:      NewStartController(d.Services.Start, d.Metrics, st),
		Callback:   NewCallbackController(d.Services.Callback, d.Metrics, st),
		Completion: NewCompletionController(d.Services.Completion, d.Metrics, st),
		Session:    NewSessionController(st),
	}
	if d.Bridge != nil {
		c.CivicAction = NewCivicActionController(d.Bridge, d.Metrics)
	}
	return c
}
