package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chaan32/StudyPing/internal/config"
	pubsub "github.com/chaan32/StudyPing/internal/infrastructure/pubsub/port"
	qport "github.com/chaan32/StudyPing/internal/infrastructure/queue/port"
	"github.com/chaan32/StudyPing/internal/infrastructure/realtime"
	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
	"github.com/chaan32/StudyPing/internal/pkg/chat/presentation/controller"
	memberport "github.com/chaan32/StudyPing/internal/repository/port"
)

// Dependencies carries the adapters the chat endpoints are built from.
type Dependencies struct {
	Repo      repository.ChatRepository
	Members   memberport.MemberRepository
	Validator realtime.TokenValidator
	Publisher pubsub.Publisher
	Queue     qport.Client
	Router    *realtime.Router
	Config    config.Config
	Log       *zap.Logger
}

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, d Dependencies) {
	authCtl := controller.NewAuthController(d.Validator, usecase.NewResolveMemberUseCase(d.Members))
	api := g.Group("/chat", authCtl.Handle())

	// GET /api/v1/chat/history/:roomId -> ordered room history
	api.GET("/history/:roomId", controller.NewGetHistoryController(
		usecase.NewGetHistoryUseCase(d.Repo, d.Config.RequireRoomMembership)).Handle())

	// POST /api/v1/chat/read/:roomId -> mark the caller's messages in a room read
	api.POST("/read/:roomId", controller.NewMarkReadController(usecase.NewMarkReadUseCase(d.Repo)).Handle())

	// GET /api/v1/chat/rooms -> rooms of the caller with unread counts
	api.GET("/rooms", controller.NewListRoomsController(usecase.NewListRoomsUseCase(d.Repo)).Handle())

	// GET /api/v1/chat/rooms/:roomId/unread -> unread count of one room
	api.GET("/rooms/:roomId/unread", controller.NewCountUnreadController(usecase.NewCountUnreadUseCase(d.Repo)).Handle())

	// GET /api/v1/chat/rooms/:roomId/participants -> member ids of a room
	api.GET("/rooms/:roomId/participants", controller.NewListParticipantsController(usecase.NewListParticipantsUseCase(d.Repo)).Handle())

	// POST /api/v1/chat/rooms/:roomId/messages -> queue a message
	if d.Queue != nil {
		api.POST("/rooms/:roomId/messages", controller.NewSendMessageController(d.Queue, d.Config.MaxMessageLength).Handle())
	}

	// POST /api/v1/chat/direct/:receiverId -> find or open a 1:1 room
	api.POST("/direct/:receiverId", controller.NewDirectRoomController(usecase.NewDirectRoomUseCase(d.Repo, d.Members)).Handle())

	// POST /api/v1/chat/group -> open the room of a study
	api.POST("/group", controller.NewCreateGroupRoomController(usecase.NewCreateGroupRoomUseCase(d.Repo)).Handle())

	// POST /api/v1/chat/group/:studyId/join -> join a study's room
	api.POST("/group/:studyId/join", controller.NewJoinGroupRoomController(usecase.NewJoinGroupRoomUseCase(d.Repo)).Handle())
}

// RegisterSocket mounts the realtime websocket endpoint at path.
func RegisterSocket(r gin.IRoutes, path string, d Dependencies) {
	interceptor := realtime.NewInterceptor(
		d.Validator,
		usecase.NewResolveMemberUseCase(d.Members),
		usecase.NewAuthorizeSubscriptionUseCase(d.Repo, d.Config.RequireRoomMembership),
	)
	ctl := controller.NewChatSocketController(d.Router, interceptor, NewPublishUseCase(d), controller.SocketOptions{
		AllowedOrigins: d.Config.AllowedOrigins,
		RateLimit:      d.Config.RateLimit,
	}, d.Log)
	r.GET(path, ctl.Handle())
}

// NewPublishUseCase builds the ingest-then-publish pipeline shared by the
// websocket endpoint and the queue worker.
func NewPublishUseCase(d Dependencies) *usecase.PublishMessageUseCase {
	ingest := usecase.NewSendMessageUseCase(d.Repo, d.Members, d.Config.MaxMessageLength)
	return usecase.NewPublishMessageUseCase(ingest, d.Publisher, d.Config.FanoutChannel, d.Log)
}
