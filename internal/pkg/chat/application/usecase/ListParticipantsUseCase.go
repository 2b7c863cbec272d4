package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
)

// ListParticipantsInput wraps the room identifier to fetch its participants.
type ListParticipantsInput struct {
	RoomID int64
}

// ListParticipantsUseCase returns the member ids of every participant of a room.
type ListParticipantsUseCase struct {
	Repo repository.ChatRepository
}

func NewListParticipantsUseCase(repo repository.ChatRepository) *ListParticipantsUseCase {
	return &ListParticipantsUseCase{Repo: repo}
}

func (uc *ListParticipantsUseCase) Execute(ctx context.Context, in ListParticipantsInput) ([]int64, error) {
	if _, err := uc.Repo.FindRoom(ctx, in.RoomID); err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return nil, chat.ErrRoomNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	ids, err := uc.Repo.ListParticipantIDs(ctx, in.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ids, nil
}
