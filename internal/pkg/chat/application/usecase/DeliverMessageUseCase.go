package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/chaan32/StudyPing/internal/infrastructure/realtime"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
)

// Broadcaster is the slice of the connection registry local delivery needs.
type Broadcaster interface {
	Broadcast(topic string, payload []byte) int
}

// DeliverMessageUseCase is the fan-out receive side: every instance runs it
// for each payload seen on the shared channel and forwards the message to the
// sessions it holds for the payload's room.
type DeliverMessageUseCase struct {
	Sessions Broadcaster
	Log      *zap.Logger
}

func NewDeliverMessageUseCase(sessions Broadcaster, log *zap.Logger) *DeliverMessageUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeliverMessageUseCase{Sessions: sessions, Log: log}
}

// Execute returns how many local sessions accepted the message.
func (uc *DeliverMessageUseCase) Execute(_ context.Context, payload []byte) (int, error) {
	p, err := chat.DecodePayload(payload)
	if err != nil {
		return 0, err
	}
	topic := chat.TopicFor(p.RoomID)
	frame, err := realtime.MessageFrame(topic, payload).Encode()
	if err != nil {
		return 0, err
	}
	return uc.Sessions.Broadcast(topic, frame), nil
}

// Handle matches the pub/sub handler signature. Bad payloads are dropped.
func (uc *DeliverMessageUseCase) Handle(ctx context.Context, channel string, payload []byte) {
	n, err := uc.Execute(ctx, payload)
	if err != nil {
		uc.Log.Warn("dropping fan-out payload", zap.String("channel", channel), zap.Error(err))
		return
	}
	uc.Log.Debug("delivered", zap.String("channel", channel), zap.Int("sessions", n))
}
