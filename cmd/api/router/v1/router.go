package v1

import (
	"github.com/gin-gonic/gin"

	httpHandler "github.com/chaan32/StudyPing/internal/pkg/chat/presentation/http"
)

// SocketPath is where realtime clients connect.
const SocketPath = "/connect"

// RegisterRoutes mounts all version 1 API routes under /api/v1 and the
// realtime endpoint at SocketPath.
func RegisterRoutes(r *gin.Engine, d httpHandler.Dependencies) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, d)
	httpHandler.RegisterSocket(r, SocketPath, d)
}
