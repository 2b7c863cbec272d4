package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/chaan32/StudyPing/internal/infrastructure/auth"
	"github.com/chaan32/StudyPing/internal/infrastructure/realtime"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	memberport "github.com/chaan32/StudyPing/internal/repository/port"
)

// ResolveMemberUseCase completes a token identity with the member it names.
type ResolveMemberUseCase struct {
	Members memberport.MemberRepository
}

func NewResolveMemberUseCase(members memberport.MemberRepository) *ResolveMemberUseCase {
	return &ResolveMemberUseCase{Members: members}
}

var _ realtime.IdentityResolver = (*ResolveMemberUseCase)(nil)

// ResolveIdentity fails with chat.ErrSenderNotFound when the subject is unknown.
func (uc *ResolveMemberUseCase) ResolveIdentity(ctx context.Context, id auth.Identity) (auth.Identity, error) {
	m, err := uc.Members.FindByEmail(ctx, id.Subject)
	if err != nil {
		if errors.Is(err, chat.ErrMemberNotFound) {
			return auth.Identity{}, chat.ErrSenderNotFound
		}
		return auth.Identity{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	id.MemberID = m.ID
	id.Name = m.Name
	return id, nil
}
