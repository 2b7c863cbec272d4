package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
	memberport "github.com/chaan32/StudyPing/internal/repository/port"
)

// SendMessageInput carries one inbound chat message. The sender is the
// authenticated subject of the session, never a client supplied id.
type SendMessageInput struct {
	RoomID      int64
	SenderEmail string
	Content     string
}

// SendMessageOutput is the accepted message with the read marks written alongside it.
type SendMessageOutput struct {
	Message   chat.Message
	ReadMarks []chat.ReadMark
}

// SendMessageUseCase is the ingest pipeline: it validates and persists a
// message and its read marks. It never publishes.
type SendMessageUseCase struct {
	Repo      repository.ChatRepository
	Members   memberport.MemberRepository
	MaxLength int
	Now       func() time.Time
}

func NewSendMessageUseCase(repo repository.ChatRepository, members memberport.MemberRepository, maxLength int) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Members: members, MaxLength: maxLength, Now: time.Now}
}

// Execute rejects with chat.ErrRoomNotFound, chat.ErrSenderNotFound,
// chat.ErrNotParticipant, chat.ErrEmptyMessage or chat.ErrContentTooLong
// before anything is stored.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if in.RoomID <= 0 {
		return nil, chat.ErrRoomNotFound
	}
	if in.SenderEmail == "" {
		return nil, chat.ErrSenderNotFound
	}

	room, err := uc.Repo.FindRoom(ctx, in.RoomID)
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return nil, chat.ErrRoomNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	sender, err := uc.Members.FindByEmail(ctx, in.SenderEmail)
	if err != nil {
		if errors.Is(err, chat.ErrMemberNotFound) {
			return nil, chat.ErrSenderNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, room.ID, sender.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return nil, chat.ErrNotParticipant
	}

	now := time.Now
	if uc.Now != nil {
		now = uc.Now
	}
	msg, err := chat.NewMessage(room.ID, *sender, in.Content, uc.MaxLength, now())
	if err != nil {
		return nil, err
	}

	saved, marks, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &SendMessageOutput{Message: saved, ReadMarks: marks}, nil
}
