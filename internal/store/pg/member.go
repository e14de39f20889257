package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/memberbridge/internal/domain/repository"
)

// Querier es la mínima interfaz que cumplen *pgxpool.Pool y pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MemberRepo implementa repository.MemberRepository.
type MemberRepo struct {
	db Querier
}

var _ repository.MemberRepository = (*MemberRepo)(nil)

// NewMemberRepo permite construir el repo sobre una tx o un pool.
func NewMemberRepo(db Querier) *MemberRepo {
	return &MemberRepo{db: db}
}

const memberColumns = `id::text, email, name, note, labels, subscribed, created_at, updated_at`

func scanMember(row pgx.Row) (*repository.Member, error) {
	var m repository.Member
	if err := row.Scan(&m.ID, &m.Email, &m.Name, &m.Note, &m.Labels, &m.Subscribed, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepo) FindByEmail(ctx context.Context, email string) (*repository.Member, error) {
	const q = `SELECT ` + memberColumns + ` FROM member WHERE lower(email) = lower($1)`
	m, err := scanMember(r.db.QueryRow(ctx, q, strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MemberRepo) Create(ctx context.Context, in repository.CreateMemberInput) (*repository.Member, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, repository.ErrInvalidInput
	}
	labels := in.Labels
	if labels == nil {
		labels = []string{}
	}
	const q = `
INSERT INTO member (id, email, name, note, labels, subscribed)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + memberColumns
	m, err := scanMember(r.db.QueryRow(ctx, q, uuid.NewString(), email, in.Name, in.Note, labels, in.Subscribed))
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return m, nil
}

func (r *MemberRepo) Update(ctx context.Context, id string, in repository.UpdateMemberInput) (*repository.Member, error) {
	var email *string
	if in.Email != nil {
		e := strings.TrimSpace(*in.Email)
		if e == "" {
			return nil, repository.ErrInvalidInput
		}
		email = &e
	}
	const q = `
UPDATE member SET
	email      = COALESCE($2, email),
	name       = COALESCE($3, name),
	note       = COALESCE($4, note),
	subscribed = COALESCE($5, subscribed),
	updated_at = NOW()
WHERE id = $1
RETURNING ` + memberColumns
	m, err := scanMember(r.db.QueryRow(ctx, q, id, email, in.Name, in.Note, in.Subscribed))
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, repository.ErrNotFound
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return nil, repository.ErrConflict
	case codeInvalidTextRepr: // id que no es uuid
		return nil, repository.ErrNotFound
	}
	return nil, err
}

func (r *MemberRepo) Ping(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `SELECT 1`)
	return err
}
