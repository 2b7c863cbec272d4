package controller

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	queueport "github.com/chaan32/StudyPing/internal/infrastructure/queue/port"
	"github.com/chaan32/StudyPing/internal/pkg/chat/application/task"
)

// SendMessageController handles the send-message endpoint only (one controller per endpoint).
// Messages are enqueued and sent by the worker, which runs the same ingest
// and publish steps as the realtime endpoint.
type SendMessageController struct {
	Q         queueport.Client
	MaxLength int
}

func NewSendMessageController(client queueport.Client, maxLength int) *SendMessageController {
	return &SendMessageController{Q: client, MaxLength: maxLength}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Handle returns a gin handler that enqueues a background task to send a message
func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := int64Param(c, "roomId")
		if !ok {
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
			return
		}
		// Cheap checks up front; the worker validates again before storing.
		content := strings.TrimSpace(req.Content)
		if content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"code": "empty_message", "error": "content is empty"})
			return
		}
		if h.MaxLength > 0 && utf8.RuneCountInString(content) > h.MaxLength {
			c.JSON(http.StatusBadRequest, gin.H{"code": "content_too_long", "error": "content is too long"})
			return
		}

		id := identityFrom(c)
		t, err := task.SendMessageTaskPayload{RoomID: roomID, SenderEmail: id.Subject, Content: content}.Encode()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "error": "failed to encode task payload"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		opts := queueport.EnqueueOption{Queue: task.SendMessageQueue, MaxRetry: 20, Timeout: 10 * time.Second}
		taskID, err := h.Q.Enqueue(ctx, t, opts)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": "queue_unavailable", "error": "failed to enqueue message"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status": "queued",
			"taskId": taskID,
			"roomId": roomID,
		})
	}
}
