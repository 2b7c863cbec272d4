package repository

import (
	"context"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
)

// MemberRepository is the read-only contract the chat core needs from the
// member directory. Misses return chat.ErrMemberNotFound.
type MemberRepository interface {
	FindByID(ctx context.Context, id int64) (*chat.Member, error)
	FindByEmail(ctx context.Context, email string) (*chat.Member, error)
}
