package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
)

// DirectRoomController opens (or returns) the caller's 1:1 room with a receiver.
type DirectRoomController struct {
	UC *usecase.DirectRoomUseCase
}

func NewDirectRoomController(uc *usecase.DirectRoomUseCase) *DirectRoomController {
	return &DirectRoomController{UC: uc}
}

func (h *DirectRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		receiverID, ok := int64Param(c, "receiverId")
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		roomID, err := h.UC.Execute(ctx, usecase.DirectRoomInput{SenderID: identityFrom(c).MemberID, ReceiverID: receiverID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomId": roomID})
	}
}
