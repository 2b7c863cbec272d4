package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
)

type CountUnreadController struct {
	UC *usecase.CountUnreadUseCase
}

func NewCountUnreadController(uc *usecase.CountUnreadUseCase) *CountUnreadController {
	return &CountUnreadController{UC: uc}
}

func (h *CountUnreadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := int64Param(c, "roomId")
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		n, err := h.UC.Execute(ctx, usecase.CountUnreadInput{RoomID: roomID, MemberID: identityFrom(c).MemberID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomId": roomID, "unReadCount": n})
	}
}
