package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaan32/StudyPing/internal/infrastructure/auth"
	"github.com/chaan32/StudyPing/internal/infrastructure/realtime"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
)

const (
	identityKey    = "chat.identity"
	requestTimeout = 3 * time.Second
)

// AuthController guards the HTTP API with the same bearer tokens the
// realtime endpoint accepts.
type AuthController struct {
	Validator realtime.TokenValidator
	Resolver  realtime.IdentityResolver
}

func NewAuthController(v realtime.TokenValidator, r realtime.IdentityResolver) *AuthController {
	return &AuthController{Validator: v, Resolver: r}
}

// Handle returns middleware that stores the caller's identity on the context
// or aborts with 401.
func (h *AuthController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := h.Validator.Validate(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": authErrorCode(err), "error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		id, err = h.Resolver.ResolveIdentity(ctx, id)
		if err != nil {
			if errors.Is(err, chat.ErrSenderNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unknown_member", "error": err.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "error": "member lookup failed"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func identityFrom(c *gin.Context) auth.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(auth.Identity)
	return id
}

func authErrorCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, auth.ErrExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed_credential"
	}
}

// errorStatus maps use case errors onto an HTTP status and a stable code.
// The same codes are used in websocket ERROR frames.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrRoomNotFound):
		return http.StatusNotFound, "room_not_found"
	case errors.Is(err, chat.ErrSenderNotFound):
		return http.StatusNotFound, "sender_not_found"
	case errors.Is(err, chat.ErrMemberNotFound):
		return http.StatusNotFound, "member_not_found"
	case errors.Is(err, chat.ErrNotParticipant):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, chat.ErrContentTooLong):
		return http.StatusBadRequest, "content_too_long"
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, "empty_message"
	case errors.Is(err, chat.ErrInvalidDirectPair),
		errors.Is(err, chat.ErrInvalidStudy),
		errors.Is(err, chat.ErrInvalidDestination):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "unexpected server error"
	}
	c.JSON(status, gin.H{"code": code, "error": msg})
}

// int64Param parses a positive path parameter, writing 400 when it is not one.
func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": name + " must be a positive integer"})
		return 0, false
	}
	return v, true
}
