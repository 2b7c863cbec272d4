package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
)

type JoinGroupRoomInput struct {
	StudyID  int64
	MemberID int64
}

// JoinGroupRoomUseCase adds a new study member to the study's room.
// Joining twice is a no-op.
type JoinGroupRoomUseCase struct {
	Repo repository.ChatRepository
}

func NewJoinGroupRoomUseCase(repo repository.ChatRepository) *JoinGroupRoomUseCase {
	return &JoinGroupRoomUseCase{Repo: repo}
}

// Execute returns the room id the member now belongs to.
func (uc *JoinGroupRoomUseCase) Execute(ctx context.Context, in JoinGroupRoomInput) (int64, error) {
	room, err := uc.Repo.FindRoomByStudy(ctx, in.StudyID)
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return 0, chat.ErrRoomNotFound
		}
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if _, err := uc.Repo.AddParticipant(ctx, room.ID, in.MemberID); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return room.ID, nil
}
