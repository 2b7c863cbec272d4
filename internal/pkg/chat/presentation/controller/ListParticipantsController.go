package controller

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
)

// ListParticipantsController lists the members of a room the caller belongs to.
type ListParticipantsController struct {
	UC *usecase.ListParticipantsUseCase
}

func NewListParticipantsController(uc *usecase.ListParticipantsUseCase) *ListParticipantsController {
	return &ListParticipantsController{UC: uc}
}

func (h *ListParticipantsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := int64Param(c, "roomId")
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		ids, err := h.UC.Execute(ctx, usecase.ListParticipantsInput{RoomID: roomID})
		if err != nil {
			writeError(c, err)
			return
		}
		if !slices.Contains(ids, identityFrom(c).MemberID) {
			writeError(c, chat.ErrNotParticipant)
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomId": roomID, "participants": ids})
	}
}
