package oauth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/dropDatabas3/memberbridge/internal/domain/repository"
	"github.com/dropDatabas3/memberbridge/internal/identity"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

// CompleteRequest es el formulario de completado de perfil.
// El token del bridge es la capacidad para completar; no hay sesión server-side.
type CompleteRequest struct {
	Token     string
	Email     string // opcional: vacío = seguir con el placeholder
	Subscribe bool
}

// CompleteResult: Session es nil si no se encontró member al que ligar la sesión.
type CompleteResult struct {
	Member    *repository.Member
	Session   *SessionCredential
	Completed bool // hubo transición placeholder -> email real
}

// CompletionService implementa el segundo paso para identidades sin email.
type CompletionService interface {
	Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error)
}

// CompletionDeps contains dependencies for the completion service.
type CompletionDeps struct {
	Codec        *jwtx.Codec
	Resolver     *identity.Resolver
	Members      repository.MemberRepository
	Sessions     SessionService
	Notifier     WelcomeNotifier // opcional
	StoreTimeout time.Duration
}

type completionService struct {
	codec    *jwtx.Codec
	resolver *identity.Resolver
	members  repository.MemberRepository
	sessions SessionService
	notifier WelcomeNotifier
	timeout  time.Duration
}

// NewCompletionService creates a new CompletionService.
func NewCompletionService(d CompletionDeps) CompletionService {
	return &completionService{
		codec:    d.Codec,
		resolver: d.Resolver,
		members:  d.Members,
		sessions: d.Sessions,
		notifier: d.Notifier,
		timeout:  d.StoreTimeout,
	}
}

func (s *completionService) Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.completion"),
		logger.Op("Complete"),
	)

	a, err := s.codec.VerifyAssertion(strings.TrimSpace(req.Token))
	if err != nil {
		return nil, err
	}
	// Solo los flujos atproto completan perfil.
	if strings.TrimSpace(a.DID) == "" {
		return nil, ErrInvalidProfileToken
	}
	log = log.With(logger.Provider(a.Provider), logger.DID(a.DID))

	email := strings.TrimSpace(req.Email)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return nil, ErrInvalidEmail
		}
	}

	res := &CompleteResult{}
	if email != "" {
		placeholder := identity.PlaceholderEmail(a.DID)
		pending, err := s.resolver.FindExistingMember(ctx, placeholder)
		if err != nil {
			log.Error("member lookup failed", logger.Err(err))
			return nil, storeErr("find", err)
		}
		if pending == nil {
			log.Warn("no pending member for did")
			return nil, ErrMemberNotFound
		}

		// TODO: decide whether a member already moved off its placeholder may complete again.
		updated, err := s.transition(ctx, pending, email, req.Subscribe)
		if err != nil {
			log.Error("profile completion failed", logger.MemberID(pending.ID), logger.Err(err))
			return nil, storeErr("update", err)
		}
		log.Info("profile completed",
			logger.MemberID(updated.ID),
			logger.MaskedEmail(updated.Email),
			logger.Bool("subscribed", updated.Subscribed),
		)
		res.Member = updated
		res.Completed = true
		s.welcome(ctx, updated, req.Subscribe)
	} else {
		canonical, err := identity.CanonicalEmail(a)
		if err != nil {
			return nil, err
		}
		m, err := s.resolver.FindExistingMember(ctx, canonical)
		if err != nil {
			log.Error("member lookup failed", logger.Err(err))
			return nil, storeErr("find", err)
		}
		if m == nil {
			log.Warn("no member to bind session to")
			return res, nil
		}
		res.Member = m
	}

	sess, err := s.sessions.Issue(res.Member, a)
	if err != nil {
		log.Error("session issue failed", logger.Err(err))
		return nil, err
	}
	res.Session = sess
	return res, nil
}

func (s *completionService) transition(ctx context.Context, m *repository.Member, email string, subscribe bool) (*repository.Member, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	return s.members.Update(ctx, m.ID, repository.UpdateMemberInput{
		Email:      &email,
		Subscribed: &subscribe,
	})
}

// welcome es best-effort: un fallo de SMTP no afecta el resultado.
func (s *completionService) welcome(ctx context.Context, m *repository.Member, subscribed bool) {
	if s.notifier == nil || !subscribed {
		return
	}
	if err := s.notifier.SendWelcome(ctx, m.Email, m.Name); err != nil {
		logger.From(ctx).Warn("welcome notice failed",
			logger.Component("oauth.completion"),
			logger.MemberID(m.ID),
			logger.Err(err),
		)
	}
}

// IsStateError reporta errores de estado del completado (token o member inválidos).
func IsStateError(err error) bool {
	return errors.Is(err, ErrInvalidProfileToken) || errors.Is(err, ErrMemberNotFound)
}
