package usecase

import (
	"context"
	"fmt"

	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
)

type CountUnreadInput struct {
	RoomID   int64
	MemberID int64
}

// CountUnreadUseCase backs the unread badge of a single room.
type CountUnreadUseCase struct {
	Repo repository.ChatRepository
}

func NewCountUnreadUseCase(repo repository.ChatRepository) *CountUnreadUseCase {
	return &CountUnreadUseCase{Repo: repo}
}

func (uc *CountUnreadUseCase) Execute(ctx context.Context, in CountUnreadInput) (int64, error) {
	n, err := uc.Repo.CountUnread(ctx, in.RoomID, in.MemberID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}
