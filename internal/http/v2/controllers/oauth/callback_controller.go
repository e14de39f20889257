package oauth

import (
	"net/http"

	httperrors "github.com/dropDatabas3/memberbridge/internal/http/v2/errors"
	svc "github.com/dropDatabas3/memberbridge/internal/http/v2/services/oauth"
	"github.com/dropDatabas3/memberbridge/internal/identity"
	"github.com/dropDatabas3/memberbridge/internal/metrics"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

// CallbackController recibe el retorno del bridge.
type CallbackController struct {
	service  svc.CallbackService
	metrics  *metrics.Metrics
	settings Settings
}

// NewCallbackController creates a new CallbackController.
func NewCallbackController(service svc.CallbackService, m *metrics.Metrics, st Settings) *CallbackController {
	return &CallbackController{service: service, metrics: m, settings: st}
}

// Callback handles GET {prefix}/callback?token=&provider=
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

	q := r.URL.Query()
	provider := identity.NormalizeProvider(q.Get("provider"))

	res, err := c.service.Callback(ctx, q.Get("token"), provider)
	if err != nil {
		log.Warn("oauth callback failed", logger.Provider(provider), logger.Err(err))
		c.metrics.ObserveFlow(metrics.StageCallback, provider, metrics.OutcomeFailed)
		httperrors.RedirectSignin(w, r, c.settings.SigninPath, httperrors.SigninOAuthFailed)
		return
	}

	provider = res.Assertion.Provider
	if res.Reconcile.Created {
		c.metrics.ObserveMemberCreated(provider)
	}

	if res.NeedsCompletion() {
		c.metrics.ObserveFlow(metrics.StageCallback, provider, metrics.OutcomeCompletion)
		http.Redirect(w, r, res.CompletionURL, http.StatusFound)
		return
	}

	http.SetCookie(w, c.settings.sessionCookie(res.Session.Token))
	c.metrics.ObserveFlow(metrics.StageCallback, provider, metrics.OutcomeSession)
	log.Info("member signed in", logger.MemberID(res.Session.Claims.MemberID), logger.Provider(provider))
	http.Redirect(w, r, c.settings.HomePath, http.StatusFound)
}
