package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
)

const defaultHistoryLimit = 50

// GetHistoryInput selects a window over the newest messages of a room.
type GetHistoryInput struct {
	RoomID   int64
	MemberID int64
	Limit    int
	Offset   int
}

// GetHistoryUseCase returns persisted messages oldest first. It is the
// recovery path for live deliveries a session missed.
type GetHistoryUseCase struct {
	Repo              repository.ChatRepository
	RequireMembership bool
}

func NewGetHistoryUseCase(repo repository.ChatRepository, requireMembership bool) *GetHistoryUseCase {
	return &GetHistoryUseCase{Repo: repo, RequireMembership: requireMembership}
}

func (uc *GetHistoryUseCase) Execute(ctx context.Context, in GetHistoryInput) ([]chat.Message, error) {
	if _, err := uc.Repo.FindRoom(ctx, in.RoomID); err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return nil, chat.ErrRoomNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if uc.RequireMembership {
		ok, err := uc.Repo.IsParticipant(ctx, in.RoomID, in.MemberID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if !ok {
			return nil, chat.ErrNotParticipant
		}
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	offset := max(in.Offset, 0)
	msgs, err := uc.Repo.GetMessagesByRoom(ctx, in.RoomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
