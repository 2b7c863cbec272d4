package usecase

import (
	"context"
	"fmt"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
)

// ListRoomsUseCase lists the rooms a member participates in with unread counts.
type ListRoomsUseCase struct {
	Repo repository.ChatRepository
}

func NewListRoomsUseCase(repo repository.ChatRepository) *ListRoomsUseCase {
	return &ListRoomsUseCase{Repo: repo}
}

func (uc *ListRoomsUseCase) Execute(ctx context.Context, memberID int64) ([]chat.RoomSummary, error) {
	rooms, err := uc.Repo.ListRoomsByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if rooms == nil {
		rooms = []chat.RoomSummary{}
	}
	return rooms, nil
}
