package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
)

// MarkReadController marks every message of a room as read for the caller.
type MarkReadController struct {
	UC *usecase.MarkReadUseCase
}

func NewMarkReadController(uc *usecase.MarkReadUseCase) *MarkReadController {
	return &MarkReadController{UC: uc}
}

func (h *MarkReadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID, ok := int64Param(c, "roomId")
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if _, err := h.UC.Execute(ctx, usecase.MarkReadInput{RoomID: roomID, MemberID: identityFrom(c).MemberID}); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusOK)
	}
}
