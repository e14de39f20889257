package oauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/memberbridge/internal/bridge"
	httperrors "github.com/dropDatabas3/memberbridge/internal/http/v2/errors"
	"github.com/dropDatabas3/memberbridge/internal/metrics"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

const clickReportTimeout = 2 * time.Second

// CivicActionController hace de proxy de los datos de civic actions del bridge.
type CivicActionController struct {
	client  CivicActions
	metrics *metrics.Metrics
}

// NewCivicActionController creates a new CivicActionController.
func NewCivicActionController(client CivicActions, m *metrics.Metrics) *CivicActionController {
	return &CivicActionController{client: client, metrics: m}
}

// Get handles GET {prefix}/civic-actions/{source}/{actionId}
func (c *CivicActionController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	source, actionID := chi.URLParam(r, "source"), chi.URLParam(r, "actionId")
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Op("CivicActionController.Get"),
		logger.String("source", source),
	)

	raw, err := c.client.CivicAction(ctx, source, actionID)
	if err != nil {
		c.metrics.ObserveFlow(metrics.StageCivic, metrics.SourceBridge, metrics.OutcomeFailed)
		if errors.Is(err, bridge.ErrInvalidIdentifier) {
			httperrors.WriteError(w, httperrors.ErrInvalidParameter)
			return
		}
		httperrors.Respond(w, r.WithContext(logger.ToContext(ctx, log)), httperrors.ErrCivicActionUnavailable.WithCause(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// Click handles POST {prefix}/civic-actions/{source}/{actionId}/click.
// Best-effort: siempre 204, el fallo solo se loguea.
func (c *CivicActionController) Click(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), clickReportTimeout)
	defer cancel()
	source, actionID := chi.URLParam(r, "source"), chi.URLParam(r, "actionId")

	if err := c.client.ReportClick(ctx, source, actionID); err != nil {
		logger.From(ctx).Debug("click report dropped",
			logger.Layer("controller"),
			logger.String("source", source),
			logger.Err(err),
		)
	}
	w.WriteHeader(http.StatusNoContent)
}
