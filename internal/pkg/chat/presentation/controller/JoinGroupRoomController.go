package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
)

// JoinGroupRoomController adds the caller to a study's room.
type JoinGroupRoomController struct {
	UC *usecase.JoinGroupRoomUseCase
}

func NewJoinGroupRoomController(uc *usecase.JoinGroupRoomUseCase) *JoinGroupRoomController {
	return &JoinGroupRoomController{UC: uc}
}

func (h *JoinGroupRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		studyID, ok := int64Param(c, "studyId")
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		roomID, err := h.UC.Execute(ctx, usecase.JoinGroupRoomInput{StudyID: studyID, MemberID: identityFrom(c).MemberID})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomId": roomID})
	}
}
