package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
	memberport "github.com/chaan32/StudyPing/internal/repository/port"
)

type DirectRoomInput struct {
	SenderID   int64
	ReceiverID int64
}

// DirectRoomUseCase finds or opens the 1:1 room of a member pair. The pair is
// unordered: (a, b) and (b, a) always resolve to the same room.
type DirectRoomUseCase struct {
	Repo    repository.ChatRepository
	Members memberport.MemberRepository
}

func NewDirectRoomUseCase(repo repository.ChatRepository, members memberport.MemberRepository) *DirectRoomUseCase {
	return &DirectRoomUseCase{Repo: repo, Members: members}
}

func (uc *DirectRoomUseCase) Execute(ctx context.Context, in DirectRoomInput) (int64, error) {
	if in.SenderID == in.ReceiverID {
		return 0, chat.ErrInvalidDirectPair
	}
	sender, err := uc.member(ctx, in.SenderID)
	if err != nil {
		return 0, err
	}
	receiver, err := uc.member(ctx, in.ReceiverID)
	if err != nil {
		return 0, err
	}

	room, err := chat.NewDirectRoom(*sender, *receiver)
	if err != nil {
		return 0, err
	}
	id, _, err := uc.Repo.FindOrCreateDirectRoom(ctx, room, sender.ID, receiver.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return id, nil
}

func (uc *DirectRoomUseCase) member(ctx context.Context, id int64) (*chat.Member, error) {
	m, err := uc.Members.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, chat.ErrMemberNotFound) {
			return nil, chat.ErrMemberNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return m, nil
}
