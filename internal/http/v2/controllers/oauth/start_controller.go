package oauth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/memberbridge/internal/http/v2/errors"
	svc "github.com/dropDatabas3/memberbridge/internal/http/v2/services/oauth"
	"github.com/dropDatabas3/memberbridge/internal/identity"
	"github.com/dropDatabas3/memberbridge/internal/metrics"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

// StartController redirige al endpoint de inicio del bridge.
type StartController struct {
	service  svc.StartService
	metrics  *metrics.Metrics
	settings Settings
}

// NewStartController creates a new StartController.
func NewStartController(service svc.StartService, m *metrics.Metrics, st Settings) *StartController {
	return &StartController{service: service, metrics: m, settings: st}
}

// Init handles GET|POST {prefix}/{provider}/init
func (c *StartController) Init(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StartController.Init"))

	provider := identity.NormalizeProvider(chi.URLParam(r, "provider"))
	// FormValue cubre query (GET) y form (POST).
	handle := r.FormValue("handle")

	target, err := c.service.AuthURL(ctx, provider, handle)
	if err != nil {
		log.Warn("oauth init failed", logger.Provider(provider), logger.Err(err))
		c.metrics.ObserveFlow(metrics.StageInit, provider, metrics.OutcomeFailed)
		httperrors.RedirectSignin(w, r, c.settings.SigninPath, httperrors.SigninOAuthInitFailed)
		return
	}

	c.metrics.ObserveFlow(metrics.StageInit, provider, metrics.OutcomeRedirect)
	http.Redirect(w, r, target, http.StatusFound)
}
