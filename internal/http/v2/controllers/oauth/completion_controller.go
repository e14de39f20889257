package oauth

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/memberbridge/internal/http/v2/errors"
	"github.com/dropDatabas3/memberbridge/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/memberbridge/internal/http/v2/services/oauth"
	"github.com/dropDatabas3/memberbridge/internal/identity"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
	"github.com/dropDatabas3/memberbridge/internal/metrics"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

const maxFormBytes = 64 << 10

// CompletionController procesa el formulario de completado de perfil.
type CompletionController struct {
	service  svc.CompletionService
	metrics  *metrics.Metrics
	settings Settings
}

// NewCompletionController creates a new CompletionController.
func NewCompletionController(service svc.CompletionService, m *metrics.Metrics, st Settings) *CompletionController {
	return &CompletionController{service: service, metrics: m, settings: st}
}

// Complete handles POST {prefix}/complete-profile (form: token, email, subscribe)
func (c *CompletionController) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CompletionController.Complete"))

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		log.Warn("invalid completion form", logger.Err(err))
		c.metrics.ObserveFlow(metrics.StageCompletion, identity.ProviderATProto, metrics.OutcomeFailed)
		httperrors.RedirectSignin(w, r, c.settings.SigninPath, httperrors.SigninProfileFailed)
		return
	}

	res, err := c.service.Complete(ctx, svc.CompleteRequest{
		Token:     r.PostFormValue("token"),
		Email:     r.PostFormValue("email"),
		Subscribe: helpers.FormBool(r.PostFormValue("subscribe")),
	})
	if err != nil {
		if svc.IsStateError(err) || errors.Is(err, svc.ErrInvalidEmail) || errors.Is(err, jwtx.ErrInvalidToken) {
			log.Warn("profile completion rejected", logger.Err(err))
		} else {
			log.Error("profile completion failed", logger.Err(err))
		}
		c.metrics.ObserveFlow(metrics.StageCompletion, identity.ProviderATProto, metrics.OutcomeFailed)
		httperrors.RedirectSignin(w, r, c.settings.SigninPath, httperrors.SigninProfileFailed)
		return
	}

	if res.Session != nil {
		http.SetCookie(w, c.settings.sessionCookie(res.Session.Token))
		c.metrics.ObserveFlow(metrics.StageCompletion, res.Session.Claims.Provider, metrics.OutcomeSession)
	} else {
		c.metrics.ObserveFlow(metrics.StageCompletion, identity.ProviderATProto, metrics.OutcomeRedirect)
	}
	http.Redirect(w, r, c.settings.HomePath, http.StatusFound)
}
