package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
)

// CreateGroupRoomController opens the room of a study led by the caller.
type CreateGroupRoomController struct {
	UC *usecase.CreateGroupRoomUseCase
}

func NewCreateGroupRoomController(uc *usecase.CreateGroupRoomUseCase) *CreateGroupRoomController {
	return &CreateGroupRoomController{UC: uc}
}

type createGroupRoomRequest struct {
	StudyID int64  `json:"studyId" binding:"required,gt=0"`
	Title   string `json:"title" binding:"required"`
}

func (h *CreateGroupRoomController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createGroupRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
			return
		}

		in := usecase.CreateGroupRoomInput{StudyID: req.StudyID, Title: req.Title, LeaderID: identityFrom(c).MemberID}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		out, err := h.UC.Execute(ctx, in)
		if err != nil {
			writeError(c, err)
			return
		}

		status := http.StatusOK
		if out.Created {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{"roomId": out.RoomID, "created": out.Created})
	}
}
