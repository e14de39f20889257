package repository

import (
	"context"
	"time"
)

// Member es la identidad local de un miembro del sitio.
type Member struct {
	ID         string
	Email      string // email canónico: real o placeholder; clave única
	Name       string
	Note       string // procedencia legible, ej: "OAuth user - atproto"
	Labels     []string
	Subscribed bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasLabel reporta si el member tiene la etiqueta dada.
func (m *Member) HasLabel(label string) bool {
	for _, l := range m.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// CreateMemberInput contiene los datos para crear un member.
type CreateMemberInput struct {
	Email      string
	Name       string
	Note       string
	Labels     []string
	Subscribed bool
}

// UpdateMemberInput contiene los campos actualizables. nil = no tocar.
type UpdateMemberInput struct {
	Email      *string
	Name       *string
	Note       *string
	Subscribed *bool
}

// MemberRepository es la capacidad mínima que el core exige al member store.
type MemberRepository interface {
	// FindByEmail busca por coincidencia exacta de email canónico.
	// Retorna ErrNotFound si no existe.
	FindByEmail(ctx context.Context, email string) (*Member, error)

	// Create crea un member. Retorna ErrConflict si el email ya existe.
	Create(ctx context.Context, input CreateMemberInput) (*Member, error)

	// Update modifica un member por ID y devuelve el estado resultante.
	// Retorna ErrNotFound si no existe y ErrConflict si el nuevo email ya está tomado.
	Update(ctx context.Context, id string, input UpdateMemberInput) (*Member, error)

	// Ping verifica la conexión con el store (readiness).
	Ping(ctx context.Context) error
}
