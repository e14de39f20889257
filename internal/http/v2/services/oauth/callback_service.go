package oauth

import (
	"context"
	"net/url"
	"strings"

	"github.com/dropDatabas3/memberbridge/internal/identity"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

// DefaultWelcomePath es la continuación de completado de perfil.
const DefaultWelcomePath = "/oauth-welcome"

// CallbackResult: o bien CompletionURL (perfil pendiente) o bien Session.
type CallbackResult struct {
	Assertion     *jwtx.Assertion
	Reconcile     *ReconcileResult
	CompletionURL string
	Session       *SessionCredential
}

// NeedsCompletion reporta si el caller debe redirigir a CompletionURL.
func (r *CallbackResult) NeedsCompletion() bool { return r.CompletionURL != "" }

// CallbackService procesa el retorno del bridge.
type CallbackService interface {
	Callback(ctx context.Context, token, provider string) (*CallbackResult, error)
}

// CallbackDeps contains dependencies for the callback service.
type CallbackDeps struct {
	Codec       *jwtx.Codec
	Reconcile   ReconcileService
	Sessions    SessionService
	WelcomePath string
}

type callbackService struct {
	codec       *jwtx.Codec
	reconcile   ReconcileService
	sessions    SessionService
	welcomePath string
}

// NewCallbackService creates a new CallbackService.
func NewCallbackService(d CallbackDeps) CallbackService {
	wp := strings.TrimSpace(d.WelcomePath)
	if wp == "" {
		wp = DefaultWelcomePath
	}
	return &callbackService{
		codec:       d.Codec,
		reconcile:   d.Reconcile,
		sessions:    d.Sessions,
		welcomePath: wp,
	}
}

func (s *callbackService) Callback(ctx context.Context, token, provider string) (*CallbackResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.callback"),
		logger.Op("Callback"),
	)

	token = strings.TrimSpace(token)
	provider = identity.NormalizeProvider(provider)
	if token == "" || provider == "" {
		return nil, ErrCallbackMissingParams
	}

	a, err := s.codec.VerifyAssertion(token)
	if err != nil {
		log.Warn("bridge assertion rejected", logger.Err(err))
		return nil, err
	}
	// El provider firmado manda; el de la query es informativo.
	if identity.NormalizeProvider(a.Provider) != provider {
		log.Warn("provider mismatch between query and assertion",
			logger.String("query_provider", provider),
			logger.Provider(a.Provider),
		)
	}

	rec, err := s.reconcile.Reconcile(ctx, a)
	if err != nil {
		return nil, err
	}

	res := &CallbackResult{Assertion: a, Reconcile: rec}
	if rec.NeedsEmail {
		res.CompletionURL = s.welcomePath + "?token=" + url.QueryEscape(token)
		log.Info("profile completion required", logger.MemberID(rec.Member.ID))
		return res, nil
	}

	sess, err := s.sessions.Issue(rec.Member, a)
	if err != nil {
		log.Error("session issue failed", logger.Err(err))
		return nil, err
	}
	res.Session = sess
	return res, nil
}
