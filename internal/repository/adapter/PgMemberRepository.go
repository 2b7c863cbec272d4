package adapter

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	repository "github.com/chaan32/StudyPing/internal/repository/port"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
)

// PgMemberRepository reads members from the shared member table.
type PgMemberRepository struct {
	pool *pgxpool.Pool
}

func NewPgMemberRepository(pool *pgxpool.Pool) *PgMemberRepository {
	return &PgMemberRepository{pool: pool}
}

var _ repository.MemberRepository = (*PgMemberRepository)(nil)

func (r *PgMemberRepository) FindByID(ctx context.Context, id int64) (*chat.Member, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMemberRepository: nil pool")
	}
	return scanMember(r.pool.QueryRow(ctx,
		"SELECT id, email, name, role FROM member WHERE id = $1", id))
}

// FindByEmail matches case-insensitively, as the cache and the token subject do.
func (r *PgMemberRepository) FindByEmail(ctx context.Context, email string) (*chat.Member, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMemberRepository: nil pool")
	}
	return scanMember(r.pool.QueryRow(ctx,
		"SELECT id, email, name, role FROM member WHERE lower(email) = lower($1)", strings.TrimSpace(email)))
}

func scanMember(row pgx.Row) (*chat.Member, error) {
	var m chat.Member
	if err := row.Scan(&m.ID, &m.Email, &m.Name, &m.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, chat.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}
