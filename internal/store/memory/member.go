// Package memory implementa repository.MemberRepository en memoria.
// Útil para desarrollo y tests; hace cumplir la misma unicidad de email que Postgres.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/memberbridge/internal/domain/repository"
)

// MemberStore guarda members indexados por id y por email canónico.
type MemberStore struct {
	mu      sync.RWMutex
	byID    map[string]*repository.Member
	byEmail map[string]string // email -> id
	now     func() time.Time
}

func NewMemberStore() *MemberStore {
	return &MemberStore{
		byID:    make(map[string]*repository.Member),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// emailKey: el match es exacto salvo mayúsculas, igual que el índice lower(email) en Postgres.
func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemberStore) FindByEmail(ctx context.Context, email string) (*repository.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *MemberStore) Create(ctx context.Context, in repository.CreateMemberInput) (*repository.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := emailKey(in.Email)
	if key == "" {
		return nil, repository.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[key]; exists {
		return nil, repository.ErrConflict
	}
	now := s.now().UTC()
	m := &repository.Member{
		ID:         uuid.NewString(),
		Email:      strings.TrimSpace(in.Email),
		Name:       in.Name,
		Note:       in.Note,
		Labels:     append([]string(nil), in.Labels...),
		Subscribed: in.Subscribed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.byID[m.ID] = m
	s.byEmail[key] = m.ID
	return clone(m), nil
}

func (s *MemberStore) Update(ctx context.Context, id string, in repository.UpdateMemberInput) (*repository.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if in.Email != nil {
		newKey := emailKey(*in.Email)
		if newKey == "" {
			return nil, repository.ErrInvalidInput
		}
		oldKey := emailKey(m.Email)
		if newKey != oldKey {
			if _, taken := s.byEmail[newKey]; taken {
				return nil, repository.ErrConflict
			}
			delete(s.byEmail, oldKey)
			s.byEmail[newKey] = m.ID
		}
		m.Email = strings.TrimSpace(*in.Email)
	}
	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.Note != nil {
		m.Note = *in.Note
	}
	if in.Subscribed != nil {
		m.Subscribed = *in.Subscribed
	}
	m.UpdatedAt = s.now().UTC()
	return clone(m), nil
}

func (s *MemberStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len devuelve la cantidad de members (tests).
func (s *MemberStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func clone(m *repository.Member) *repository.Member {
	if m == nil {
		return nil
	}
	c := *m
	c.Labels = append([]string(nil), m.Labels...)
	return &c
}
