package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	pubsub "github.com/chaan32/StudyPing/internal/infrastructure/pubsub/port"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
)

// PublishMessageOutput reports an accepted message and whether it reached the
// fan-out channel. Published=false is a delivery miss: the message is stored
// and will show up in history, but live subscribers did not get it.
type PublishMessageOutput struct {
	SendMessageOutput
	Published bool
}

// PublishMessageUseCase ingests a message and, only once it is stored,
// publishes it on the shared fan-out channel.
type PublishMessageUseCase struct {
	Ingest    *SendMessageUseCase
	Publisher pubsub.Publisher
	Channel   string
	Log       *zap.Logger
}

func NewPublishMessageUseCase(ingest *SendMessageUseCase, publisher pubsub.Publisher, channel string, log *zap.Logger) *PublishMessageUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &PublishMessageUseCase{Ingest: ingest, Publisher: publisher, Channel: channel, Log: log}
}

func (uc *PublishMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*PublishMessageOutput, error) {
	accepted, err := uc.Ingest.Execute(ctx, in)
	if err != nil {
		return nil, err
	}
	out := &PublishMessageOutput{SendMessageOutput: *accepted}

	payload, err := json.Marshal(chat.PayloadOf(accepted.Message))
	if err != nil {
		uc.miss(accepted.Message, err)
		return out, nil
	}
	if err := uc.Publisher.Publish(ctx, uc.Channel, payload); err != nil {
		uc.miss(accepted.Message, err)
		return out, nil
	}
	out.Published = true
	return out, nil
}

func (uc *PublishMessageUseCase) miss(m chat.Message, err error) {
	uc.Log.Warn("message stored but not published",
		zap.Int64("room_id", m.RoomID),
		zap.Int64("message_id", m.ID),
		zap.Error(fmt.Errorf("%w: %v", ErrPublish, err)),
	)
}
