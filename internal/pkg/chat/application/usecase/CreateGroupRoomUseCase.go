package usecase

import (
	"context"
	"fmt"
	"strings"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
)

// CreateGroupRoomInput is sent by the study service when a study is created.
type CreateGroupRoomInput struct {
	StudyID  int64
	Title    string
	LeaderID int64
}

type CreateGroupRoomOutput struct {
	RoomID  int64
	Created bool
}

// CreateGroupRoomUseCase opens the room of a study with its leader as the
// first participant. A study owns at most one room; repeating the call
// returns the existing one.
type CreateGroupRoomUseCase struct {
	Repo repository.ChatRepository
}

func NewCreateGroupRoomUseCase(repo repository.ChatRepository) *CreateGroupRoomUseCase {
	return &CreateGroupRoomUseCase{Repo: repo}
}

func (uc *CreateGroupRoomUseCase) Execute(ctx context.Context, in CreateGroupRoomInput) (*CreateGroupRoomOutput, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", chat.ErrInvalidStudy)
	}
	if in.LeaderID <= 0 {
		return nil, chat.ErrMemberNotFound
	}
	room, err := chat.NewGroupRoom(in.StudyID, title)
	if err != nil {
		return nil, err
	}

	id, created, err := uc.Repo.CreateGroupRoom(ctx, room, in.LeaderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &CreateGroupRoomOutput{RoomID: id, Created: created}, nil
}
