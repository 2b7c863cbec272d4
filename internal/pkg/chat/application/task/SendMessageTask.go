package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	qport "github.com/chaan32/StudyPing/internal/infrastructure/queue/port"
	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
)

// SendMessageTaskType is the queue task name for sending a message within the chat domain.
const SendMessageTaskType = "chat:send_message"

// SendMessageQueue is the logical queue chat tasks are enqueued on.
const SendMessageQueue = "chat"

// SendMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SendMessageTaskPayload struct {
	RoomID      int64  `json:"roomId"`
	SenderEmail string `json:"senderEmail"`
	Content     string `json:"content"`
}

// Encode builds the queue task for p.
func (p SendMessageTaskPayload) Encode() (qport.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return qport.Task{}, err
	}
	return qport.Task{Type: SendMessageTaskType, Payload: b}, nil
}

// NewSendMessageHandler runs the publish use case for one queued message.
// Storage failures are retried by the queue; anything the ingest pipeline
// rejects, or a malformed payload, is dropped.
func NewSendMessageHandler(uc *usecase.PublishMessageUseCase, log *zap.Logger) qport.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, t qport.Task) error {
		var p SendMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("%w: decode payload: %v", qport.ErrSkipRetry, err)
		}

		// give DB a reasonable time budget per task execution
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		out, err := uc.Execute(ctx, usecase.SendMessageInput{
			RoomID:      p.RoomID,
			SenderEmail: p.SenderEmail,
			Content:     p.Content,
		})
		if err != nil {
			if errors.Is(err, usecase.ErrPersistence) {
				return err
			}
			log.Info("queued message rejected",
				zap.Int64("room_id", p.RoomID),
				zap.String("sender", p.SenderEmail),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %w", qport.ErrSkipRetry, err)
		}
		log.Debug("queued message sent",
			zap.Int64("message_id", out.Message.ID),
			zap.Bool("published", out.Published),
		)
		return nil
	}
}

// RegisterSendMessageTask binds the task handler to the provided server.
func RegisterSendMessageTask(srv qport.Server, uc *usecase.PublishMessageUseCase, log *zap.Logger) {
	srv.Register(SendMessageTaskType, NewSendMessageHandler(uc, log))
}
