package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
)

// GetHistoryController handles fetching a room's messages (one controller per endpoint)
type GetHistoryController struct {
	UC *usecase.GetHistoryUseCase
}

func NewGetHistoryController(uc *usecase.GetHistoryUseCase) *GetHistoryController {
	return &GetHistoryController{UC: uc}
}

func (h *GetHistoryController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := int64Param(c, "roomId")
		if !ok {
			return
		}

		// Defaults
		limit := 50
		offset := 0

		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = min(n, 200)
			}
		}
		if v := c.Query("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		in := usecase.GetHistoryInput{RoomID: roomID, MemberID: identityFrom(c).MemberID, Limit: limit, Offset: offset}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, in)
		if err != nil {
			writeError(c, err)
			return
		}

		out := make([]gin.H, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, gin.H{
				"messageId":   m.ID,
				"roomId":      m.RoomID,
				"senderId":    m.SenderID,
				"senderEmail": m.SenderEmail,
				"senderName":  m.SenderName,
				"content":     m.Content,
				"timestamp":   m.CreatedAt,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"histories": out,
			"message":   "chat history loaded",
			"limit":     limit,
			"offset":    offset,
		})
	}
}
