package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
)

// ListRoomsController lists the caller's rooms with unread badges.
type ListRoomsController struct {
	UC *usecase.ListRoomsUseCase
}

func NewListRoomsController(uc *usecase.ListRoomsUseCase) *ListRoomsController {
	return &ListRoomsController{UC: uc}
}

func (h *ListRoomsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		rooms, err := h.UC.Execute(ctx, identityFrom(c).MemberID)
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]gin.H, 0, len(rooms))
		for _, r := range rooms {
			out = append(out, gin.H{
				"roomId":      r.RoomID,
				"roomName":    r.Name,
				"roomType":    r.Type,
				"unReadCount": r.UnreadCount,
			})
		}
		c.JSON(http.StatusOK, gin.H{"chatRoomList": out})
	}
}
