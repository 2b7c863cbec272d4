package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/chaan32/StudyPing/internal/infrastructure/auth"
	"github.com/chaan32/StudyPing/internal/infrastructure/realtime"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
)

// AuthorizeSubscriptionUseCase checks a SUBSCRIBE destination. The topic must
// name an existing room; with RequireMembership the session's member must
// also be a participant of it.
type AuthorizeSubscriptionUseCase struct {
	Repo              repository.ChatRepository
	RequireMembership bool
}

func NewAuthorizeSubscriptionUseCase(repo repository.ChatRepository, requireMembership bool) *AuthorizeSubscriptionUseCase {
	return &AuthorizeSubscriptionUseCase{Repo: repo, RequireMembership: requireMembership}
}

var _ realtime.SubscriptionAuthorizer = (*AuthorizeSubscriptionUseCase)(nil)

func (uc *AuthorizeSubscriptionUseCase) AuthorizeSubscription(ctx context.Context, id auth.Identity, topic string) error {
	roomID, err := chat.ParseTopic(topic)
	if err != nil {
		return err
	}
	if _, err := uc.Repo.FindRoom(ctx, roomID); err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return chat.ErrRoomNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !uc.RequireMembership {
		return nil
	}

	ok, err := uc.Repo.IsParticipant(ctx, roomID, id.MemberID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return chat.ErrNotParticipant
	}
	return nil
}
