package oauth

import (
	"context"
	"time"

	"github.com/dropDatabas3/memberbridge/internal/domain/repository"
	"github.com/dropDatabas3/memberbridge/internal/identity"
	jwtx "github.com/dropDatabas3/memberbridge/internal/jwt"
	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

// ReconcileResult es el member resultante de una identidad externa.
type ReconcileResult struct {
	Member         *repository.Member
	CanonicalEmail string
	Created        bool
	// NeedsEmail: atproto sin email real; el perfil debe completarse antes de la sesión.
	NeedsEmail bool
}

// ReconcileService crea o actualiza el member local de una identidad externa.
type ReconcileService interface {
	Reconcile(ctx context.Context, assertion *jwtx.Assertion) (*ReconcileResult, error)
}

// ReconcileDeps contains dependencies for the reconcile service.
type ReconcileDeps struct {
	Resolver     *identity.Resolver
	Members      repository.MemberRepository
	StoreTimeout time.Duration
}

type reconcileService struct {
	resolver *identity.Resolver
	members  repository.MemberRepository
	timeout  time.Duration
}

// NewReconcileService creates a new ReconcileService.
func NewReconcileService(d ReconcileDeps) ReconcileService {
	return &reconcileService{
		resolver: d.Resolver,
		members:  d.Members,
		timeout:  d.StoreTimeout,
	}
}

// ProvenanceNote es la nota que registra qué provider tocó el member por última vez.
func ProvenanceNote(provider string) string {
	return "OAuth user - " + provider
}

// ProviderLabel es la etiqueta que se agrega solo al crear el member.
func ProviderLabel(provider string) string {
	return "oauth-" + provider
}

func (s *reconcileService) Reconcile(ctx context.Context, a *jwtx.Assertion) (*ReconcileResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.reconcile"),
		logger.Op("Reconcile"),
	)

	email, err := identity.CanonicalEmail(a)
	if err != nil {
		return nil, err
	}
	provider := identity.NormalizeProvider(a.Provider)
	log = log.With(logger.Provider(provider), logger.MaskedEmail(email))
	if a.DID != "" {
		log = log.With(logger.DID(a.DID))
	}

	res := &ReconcileResult{
		CanonicalEmail: email,
		NeedsEmail:     !a.HasEmail() && provider == identity.ProviderATProto,
	}

	existing, err := s.resolver.FindExistingMember(ctx, email)
	if err != nil {
		log.Error("member lookup failed", logger.Err(err))
		return nil, storeErr("find", err)
	}

	if existing == nil {
		created, err := s.create(ctx, email, a)
		switch {
		case err == nil:
			log.Info("member created", logger.MemberID(created.ID), logger.Bool("subscribed", created.Subscribed))
			res.Member = created
			res.Created = true
			return res, nil
		case repository.IsConflict(err):
			// Otro callback creó el member entre el lookup y el insert; seguimos como update.
			log.Info("member create raced, falling back to update")
			existing, err = s.resolver.FindExistingMember(ctx, email)
			if err != nil {
				return nil, storeErr("find after conflict", err)
			}
			if existing == nil {
				return nil, storeErr("find after conflict", repository.ErrNotFound)
			}
		default:
			log.Error("member create failed", logger.Err(err))
			return nil, storeErr("create", err)
		}
	}

	updated, err := s.refresh(ctx, existing, a)
	if err != nil {
		log.Error("member update failed", logger.MemberID(existing.ID), logger.Err(err))
		return nil, storeErr("update", err)
	}
	log.Info("member updated", logger.MemberID(updated.ID))
	res.Member = updated
	return res, nil
}

func (s *reconcileService) create(ctx context.Context, email string, a *jwtx.Assertion) (*repository.Member, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	provider := identity.NormalizeProvider(a.Provider)
	return s.members.Create(ctx, repository.CreateMemberInput{
		Email:  email,
		Name:   a.DisplayName(),
		Note:   ProvenanceNote(provider),
		Labels: []string{ProviderLabel(provider)},
		// Solo quien trae un email real consintió un canal de contacto.
		Subscribed: a.HasEmail(),
	})
}

// refresh actualiza nombre y nota; labels y suscripción no se tocan.
func (s *reconcileService) refresh(ctx context.Context, m *repository.Member, a *jwtx.Assertion) (*repository.Member, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	note := ProvenanceNote(identity.NormalizeProvider(a.Provider))
	in := repository.UpdateMemberInput{Note: &note}
	if name := a.DisplayName(); name != "" {
		in.Name = &name
	}
	return s.members.Update(ctx, m.ID, in)
}
