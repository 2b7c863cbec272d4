package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
)

// MarkReadInput names the reader; MemberID comes from the authenticated caller.
type MarkReadInput struct {
	RoomID   int64
	MemberID int64
}

// MarkReadUseCase flips every unread mark of a member in a room to read.
// Calling it again on a fully read room changes nothing.
type MarkReadUseCase struct {
	Repo repository.ChatRepository
}

func NewMarkReadUseCase(repo repository.ChatRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo}
}

// Execute returns the number of marks that changed.
func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) (int64, error) {
	if _, err := uc.Repo.FindRoom(ctx, in.RoomID); err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return 0, chat.ErrRoomNotFound
		}
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	n, err := uc.Repo.MarkRead(ctx, in.RoomID, in.MemberID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}
