package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chaan32/StudyPing/internal/config"
	"github.com/chaan32/StudyPing/internal/infrastructure/auth"
	"github.com/chaan32/StudyPing/internal/infrastructure/realtime"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
)

const (
	defaultReadTimeout = 60 * time.Second
	maxFrameBytes      = 64 << 10
)

// SocketOptions tunes the realtime endpoint.
type SocketOptions struct {
	AllowedOrigins []string
	RateLimit      config.RateLimitConfig
}

// ChatSocketController handles the websocket endpoint for realtime chat traffic.
type ChatSocketController struct {
	router          *realtime.Router
	interceptor     *realtime.Interceptor
	publishUC       *usecase.PublishMessageUseCase
	upgrader        websocket.Upgrader
	rateLimit       config.RateLimitConfig
	log             *zap.Logger
	inflightTimeout time.Duration
}

func NewChatSocketController(router *realtime.Router, interceptor *realtime.Interceptor, publish *usecase.PublishMessageUseCase, opts SocketOptions, log *zap.Logger) *ChatSocketController {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatSocketController{
		router:      router,
		interceptor: interceptor,
		publishUC:   publish,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		rateLimit:       opts.RateLimit,
		log:             log.Named("socket"),
		inflightTimeout: 5 * time.Second,
	}
}

// originChecker allows requests without an Origin header (non-browser
// clients) and browser requests from the allow-list. "*" allows any origin.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	_, allowAll := set["*"]
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		_, ok := set[strings.TrimRight(strings.ToLower(origin), "/")]
		return ok
	}
}

type sendBody struct {
	Content string `json:"content"`
}

// session is the per-socket state of one Handle call.
type session struct {
	ws        *websocket.Conn
	admission *realtime.Admission
	conn      *realtime.Connection // nil until CONNECT succeeds
}

// reply writes f directly before admission and through the write loop after it.
func (s *session) reply(f realtime.Frame) {
	if s.conn != nil {
		_ = s.conn.SendFrame(f)
		return
	}
	b, err := f.Encode()
	if err != nil {
		return
	}
	_ = s.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = s.ws.WriteMessage(websocket.TextMessage, b)
}

// Handle upgrades HTTP connections to websocket and processes frames until the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			ctl.log.Debug("upgrade failed", zap.Error(err))
			return
		}

		s := &session{ws: ws, admission: realtime.NewAdmission(c.GetHeader("Authorization"))}
		defer ctl.release(s)

		ws.SetReadLimit(maxFrameBytes)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					ctl.log.Debug("read failed", zap.Error(err))
				}
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

			frame, err := realtime.ParseFrame(data)
			if err != nil {
				s.reply(realtime.ErrorFrame("bad_frame", err.Error()))
				if s.conn == nil {
					return
				}
				continue
			}
			if !ctl.handleFrame(c.Request.Context(), s, frame) {
				return
			}
		}
	}
}

// handleFrame returns false when the socket must be closed.
func (ctl *ChatSocketController) handleFrame(ctx context.Context, s *session, f realtime.Frame) bool {
	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	id, err := ctl.interceptor.PreSend(ctx, s.admission, f)
	if err != nil {
		s.reply(admissionErrorFrame(err))
		return s.admission.State() != realtime.StateDisconnected
	}

	switch f.Command {
	case realtime.FrameConnect:
		ctl.admit(s, id)
	case realtime.FrameSubscribe:
		ctl.router.Subscribe(f.Destination, s.conn)
		if f.ID != "" {
			s.reply(realtime.ReceiptFrame(f.ID))
		}
	case realtime.FrameUnsubscribe:
		ctl.router.Unsubscribe(f.Destination, s.conn)
		if f.ID != "" {
			s.reply(realtime.ReceiptFrame(f.ID))
		}
	case realtime.FrameSend:
		ctl.send(ctx, s, id, f)
	case realtime.FrameDisconnect:
		if f.ID != "" {
			s.reply(realtime.ReceiptFrame(f.ID))
		}
		return false
	}
	return true
}

func (ctl *ChatSocketController) admit(s *session, id auth.Identity) {
	conn := realtime.NewConnection(id, s.ws)
	conn.Limit(ctl.rateLimit.PerSecond, ctl.rateLimit.Burst)
	s.conn = conn
	ctl.router.Attach(conn)
	ctl.log.Info("session admitted", zap.String("session", conn.ID), zap.String("user", id.Subject))
	s.reply(realtime.ConnectedFrame(conn.ID, id.Subject))
}

func (ctl *ChatSocketController) send(ctx context.Context, s *session, id auth.Identity, f realtime.Frame) {
	if !s.conn.Allow() {
		s.reply(realtime.ErrorFrame("rate_limited", "too many messages"))
		return
	}
	roomID, err := chat.ParsePublishDestination(f.Destination)
	if err != nil {
		s.reply(realtime.ErrorFrame("bad_request", err.Error()))
		return
	}
	var body sendBody
	if err := json.Unmarshal(f.Body, &body); err != nil {
		s.reply(realtime.ErrorFrame("bad_request", "body must be {\"content\": string}"))
		return
	}

	out, err := ctl.publishUC.Execute(ctx, usecase.SendMessageInput{
		RoomID:      roomID,
		SenderEmail: id.Subject,
		Content:     body.Content,
	})
	if err != nil {
		_, code := errorStatus(err)
		msg := err.Error()
		if code == "internal_error" {
			ctl.log.Error("ingest failed", zap.Int64("room_id", roomID), zap.Error(err))
			msg = "unexpected server error"
		}
		s.reply(realtime.ErrorFrame(code, msg))
		return
	}
	if f.ID != "" {
		s.reply(realtime.ReceiptFrame(f.ID))
	}
	if !out.Published {
		ctl.log.Warn("live delivery missed", zap.Int64("message_id", out.Message.ID))
	}
}

func (ctl *ChatSocketController) release(s *session) {
	s.admission.Close()
	if s.conn == nil {
		_ = s.ws.Close()
		return
	}
	if ctl.router.Detach(s.conn) {
		ctl.log.Info("session released", zap.String("session", s.conn.ID))
	}
	s.conn.Shutdown(time.Second)
}

func admissionErrorFrame(err error) realtime.Frame {
	var ae *realtime.AdmissionError
	if !errors.As(err, &ae) {
		return realtime.ErrorFrame("internal_error", "unexpected server error")
	}
	if ae.Code == "subscription_refused" {
		_, code := errorStatus(ae.Err)
		if code == "internal_error" {
			return realtime.ErrorFrame(code, "unexpected server error")
		}
		return realtime.ErrorFrame(code, ae.Err.Error())
	}
	return realtime.ErrorFrame(ae.Code, ae.Error())
}
