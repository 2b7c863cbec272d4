package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/chaan32/StudyPing/internal/infrastructure/auth"
	queueport "github.com/chaan32/StudyPing/internal/infrastructure/queue/port"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	"github.com/chaan32/StudyPing/internal/pkg/chat/application/task"
	"github.com/chaan32/StudyPing/internal/pkg/chat/application/usecase"
	"github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/adapter"
)

var secret = []byte("controller-test-secret-controller-test-secret")

func init() { gin.SetMode(gin.TestMode) }

func token(t *testing.T, subject string, expires time.Time) string {
	t.Helper()
	claims := auth.Claims{
		Role: "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + s
}

type fakeQueue struct {
	tasks []queueport.Task
	opts  []queueport.EnqueueOption
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, t queueport.Task, opts ...queueport.EnqueueOption) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, t)
	q.opts = append(q.opts, opts...)
	return "task-1", nil
}

func (q *fakeQueue) Close() error { return nil }

// newEngine wires the HTTP controllers over an in-memory store holding
// kim(1), lee(2) and choi(3), with kim and lee in study 7's room.
func newEngine(t *testing.T, q *fakeQueue) (*gin.Engine, *adapter.MemoryChatRepository, int64) {
	t.Helper()
	repo := adapter.NewMemoryChatRepository()
	repo.PutMember(chat.Member{ID: 1, Email: "kim@study.ping", Name: "kim", Role: "USER"})
	repo.PutMember(chat.Member{ID: 2, Email: "lee@study.ping", Name: "lee", Role: "USER"})
	repo.PutMember(chat.Member{ID: 3, Email: "choi@study.ping", Name: "choi", Role: "USER"})
	ctx := context.Background()
	out, err := usecase.NewCreateGroupRoomUseCase(repo).Execute(ctx, usecase.CreateGroupRoomInput{StudyID: 7, Title: "algo", LeaderID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := usecase.NewJoinGroupRoomUseCase(repo).Execute(ctx, usecase.JoinGroupRoomInput{StudyID: 7, MemberID: 2}); err != nil {
		t.Fatal(err)
	}

	v, err := auth.NewJWTValidator(secret, 0)
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	api := r.Group("/chat", NewAuthController(v, usecase.NewResolveMemberUseCase(repo)).Handle())
	api.GET("/history/:roomId", NewGetHistoryController(usecase.NewGetHistoryUseCase(repo, true)).Handle())
	api.POST("/read/:roomId", NewMarkReadController(usecase.NewMarkReadUseCase(repo)).Handle())
	api.GET("/rooms", NewListRoomsController(usecase.NewListRoomsUseCase(repo)).Handle())
	api.GET("/rooms/:roomId/unread", NewCountUnreadController(usecase.NewCountUnreadUseCase(repo)).Handle())
	api.GET("/rooms/:roomId/participants", NewListParticipantsController(usecase.NewListParticipantsUseCase(repo)).Handle())
	api.POST("/rooms/:roomId/messages", NewSendMessageController(q, 10).Handle())
	api.POST("/direct/:receiverId", NewDirectRoomController(usecase.NewDirectRoomUseCase(repo, repo)).Handle())
	api.POST("/group", NewCreateGroupRoomController(usecase.NewCreateGroupRoomUseCase(repo)).Handle())
	api.POST("/group/:studyId/join", NewJoinGroupRoomController(usecase.NewJoinGroupRoomUseCase(repo)).Handle())
	return r, repo, out.RoomID
}

func do(t *testing.T, r http.Handler, method, path, authz, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func send(t *testing.T, repo *adapter.MemoryChatRepository, roomID int64, email, content string) {
	t.Helper()
	if _, err := usecase.NewSendMessageUseCase(repo, repo, 0).Execute(context.Background(),
		usecase.SendMessageInput{RoomID: roomID, SenderEmail: email, Content: content}); err != nil {
		t.Fatal(err)
	}
}

func TestAuthMiddlewareRejectsBadCredentials(t *testing.T) {
	r, _, _ := newEngine(t, &fakeQueue{})
	now := time.Now()

	cases := []struct {
		name  string
		authz string
		code  string
	}{
		{"missing", "", "missing_credential"},
		{"expired", token(t, "kim@study.ping", now.Add(-time.Hour)), "token_expired"},
		{"scheme", "Basic abc", "malformed_credential"},
		{"unknown member", token(t, "ghost@study.ping", now.Add(time.Hour)), "unknown_member"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := do(t, r, http.MethodGet, "/chat/rooms", tc.authz, "")
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d", w.Code)
			}
			if body["code"] != tc.code {
				t.Fatalf("code = %v, want %s", body["code"], tc.code)
			}
		})
	}
}

func TestHistoryAndUnreadFlow(t *testing.T) {
	r, repo, roomID := newEngine(t, &fakeQueue{})
	kim := token(t, "kim@study.ping", time.Now().Add(time.Hour))
	lee := token(t, "lee@study.ping", time.Now().Add(time.Hour))
	for _, c := range []string{"one", "two", "three"} {
		send(t, repo, roomID, "kim@study.ping", c)
	}
	room := "/chat/rooms/" + itoa(roomID)

	w, body := do(t, r, http.MethodGet, "/chat/history/"+itoa(roomID)+"?limit=2", lee, "")
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d %s", w.Code, w.Body.String())
	}
	hist := body["histories"].([]any)
	if len(hist) != 2 {
		t.Fatalf("history = %v", hist)
	}
	if hist[0].(map[string]any)["content"] != "two" || hist[1].(map[string]any)["content"] != "three" {
		t.Fatalf("want newest window oldest-first, got %v", hist)
	}

	_, body = do(t, r, http.MethodGet, room+"/unread", lee, "")
	if body["unReadCount"] != float64(3) {
		t.Fatalf("lee unread = %v", body["unReadCount"])
	}
	_, body = do(t, r, http.MethodGet, room+"/unread", kim, "")
	if body["unReadCount"] != float64(0) {
		t.Fatalf("sender unread = %v", body["unReadCount"])
	}

	w, _ = do(t, r, http.MethodPost, "/chat/read/"+itoa(roomID), lee, "")
	if w.Code != http.StatusOK {
		t.Fatalf("mark read = %d", w.Code)
	}
	_, body = do(t, r, http.MethodGet, "/chat/rooms", lee, "")
	rooms := body["chatRoomList"].([]any)
	if len(rooms) != 1 || rooms[0].(map[string]any)["unReadCount"] != float64(0) {
		t.Fatalf("rooms = %v", rooms)
	}
}

func TestHistoryRefusesOutsiders(t *testing.T) {
	r, _, roomID := newEngine(t, &fakeQueue{})
	choi := token(t, "choi@study.ping", time.Now().Add(time.Hour))

	w, body := do(t, r, http.MethodGet, "/chat/history/"+itoa(roomID), choi, "")
	if w.Code != http.StatusForbidden || body["code"] != "forbidden" {
		t.Fatalf("got %d %v", w.Code, body)
	}
	w, body = do(t, r, http.MethodGet, "/chat/history/999", choi, "")
	if w.Code != http.StatusNotFound || body["code"] != "room_not_found" {
		t.Fatalf("got %d %v", w.Code, body)
	}
	w, _ = do(t, r, http.MethodGet, "/chat/history/abc", choi, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d", w.Code)
	}
}

func TestDirectAndGroupRooms(t *testing.T) {
	r, _, roomID := newEngine(t, &fakeQueue{})
	kim := token(t, "kim@study.ping", time.Now().Add(time.Hour))
	choi := token(t, "choi@study.ping", time.Now().Add(time.Hour))

	_, first := do(t, r, http.MethodPost, "/chat/direct/3", kim, "")
	_, second := do(t, r, http.MethodPost, "/chat/direct/1", choi, "")
	if first["roomId"] == nil || first["roomId"] != second["roomId"] {
		t.Fatalf("direct rooms differ: %v vs %v", first, second)
	}
	w, body := do(t, r, http.MethodPost, "/chat/direct/1", kim, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("self direct = %d %v", w.Code, body)
	}
	w, _ = do(t, r, http.MethodPost, "/chat/direct/99", kim, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown receiver = %d", w.Code)
	}

	w, body = do(t, r, http.MethodPost, "/chat/group", kim, `{"studyId":8,"title":"os"}`)
	if w.Code != http.StatusCreated || body["created"] != true {
		t.Fatalf("create = %d %v", w.Code, body)
	}
	w, body = do(t, r, http.MethodPost, "/chat/group", kim, `{"studyId":7,"title":"algo"}`)
	if w.Code != http.StatusOK || body["roomId"] != float64(roomID) {
		t.Fatalf("existing = %d %v", w.Code, body)
	}
	w, body = do(t, r, http.MethodPost, "/chat/group/7/join", choi, "")
	if w.Code != http.StatusOK || body["roomId"] != float64(roomID) {
		t.Fatalf("join = %d %v", w.Code, body)
	}
	w, _ = do(t, r, http.MethodPost, "/chat/group/70/join", choi, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("join missing = %d", w.Code)
	}
}

func TestListParticipants(t *testing.T) {
	r, _, roomID := newEngine(t, &fakeQueue{})
	path := "/chat/rooms/" + itoa(roomID) + "/participants"

	w, body := do(t, r, http.MethodGet, path, token(t, "lee@study.ping", time.Now().Add(time.Hour)), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	ids := body["participants"].([]any)
	if len(ids) != 2 || ids[0] != float64(1) || ids[1] != float64(2) {
		t.Fatalf("participants = %v", ids)
	}
	w, _ = do(t, r, http.MethodGet, path, token(t, "choi@study.ping", time.Now().Add(time.Hour)), "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("outsider = %d", w.Code)
	}
}

func TestSendMessageEnqueues(t *testing.T) {
	q := &fakeQueue{}
	r, _, roomID := newEngine(t, q)
	kim := token(t, "kim@study.ping", time.Now().Add(time.Hour))
	path := "/chat/rooms/" + itoa(roomID) + "/messages"

	w, body := do(t, r, http.MethodPost, path, kim, `{"content":" hi "}`)
	if w.Code != http.StatusAccepted || body["taskId"] != "task-1" {
		t.Fatalf("enqueue = %d %v", w.Code, body)
	}
	if len(q.tasks) != 1 || q.tasks[0].Type != task.SendMessageTaskType {
		t.Fatalf("tasks = %+v", q.tasks)
	}
	var p task.SendMessageTaskPayload
	if err := json.Unmarshal(q.tasks[0].Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.RoomID != roomID || p.SenderEmail != "kim@study.ping" || p.Content != "hi" {
		t.Fatalf("payload = %+v", p)
	}
	if q.opts[0].Queue != task.SendMessageQueue {
		t.Fatalf("queue = %q", q.opts[0].Queue)
	}

	for body, code := range map[string]string{
		`{"content":"   "}`:         "empty_message",
		`{"content":"12345678901"}`: "content_too_long",
		`{}`:                        "bad_request",
	} {
		w, out := do(t, r, http.MethodPost, path, kim, body)
		if w.Code != http.StatusBadRequest || out["code"] != code {
			t.Fatalf("%s: %d %v", body, w.Code, out)
		}
	}

	q.err = errors.New("redis down")
	w, _ = do(t, r, http.MethodPost, path, kim, `{"content":"later"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("queue down = %d", w.Code)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://studyping.app/"})
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/connect", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	if !check(req("")) || !check(req("https://StudyPing.app")) {
		t.Fatal("expected allowed")
	}
	if check(req("https://evil.example")) {
		t.Fatal("expected refused")
	}
	if !originChecker([]string{"*"})(req("https://evil.example")) {
		t.Fatal("wildcard should allow any origin")
	}
}

func TestErrorStatusHidesInternalErrors(t *testing.T) {
	status, code := errorStatus(errors.Join(usecase.ErrPersistence, errors.New("pq: boom")))
	if status != http.StatusInternalServerError || code != "internal_error" {
		t.Fatalf("got %d %s", status, code)
	}
	if _, code := errorStatus(chat.ErrContentTooLong); code != "content_too_long" {
		t.Fatalf("code = %s", code)
	}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
