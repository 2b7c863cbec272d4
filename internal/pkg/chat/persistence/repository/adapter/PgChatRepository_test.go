package adapter

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chaan32/StudyPing/internal/infrastructure/database"
	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
)

// openTestPool connects to DB_URL and applies the schema. Tests using it are
// skipped when DB_URL is unset.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		t.Skip("DB_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := database.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

// seedMember inserts a member whose email is unique to this run.
func seedMember(t *testing.T, pool *pgxpool.Pool, name string) chat.Member {
	t.Helper()
	m := chat.Member{
		Email: fmt.Sprintf("%s-%d@study.ping", name, time.Now().UnixNano()),
		Name:  name,
		Role:  "USER",
	}
	err := pool.QueryRow(context.Background(),
		"INSERT INTO member (email, name, role) VALUES ($1, $2, $3) RETURNING id",
		m.Email, m.Name, m.Role).Scan(&m.ID)
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return m
}

func TestPgChatRepositoryGroupRoomAndReadMarks(t *testing.T) {
	pool := openTestPool(t)
	repo := NewPgChatRepository(pool)
	ctx := context.Background()

	kim := seedMember(t, pool, "kim")
	lee := seedMember(t, pool, "lee")
	park := seedMember(t, pool, "park")

	room, err := chat.NewGroupRoom(time.Now().UnixNano(), "algorithms")
	if err != nil {
		t.Fatal(err)
	}
	roomID, created, err := repo.CreateGroupRoom(ctx, room, kim.ID)
	if err != nil || !created {
		t.Fatalf("CreateGroupRoom = %d, %v, %v", roomID, created, err)
	}
	again, created, err := repo.CreateGroupRoom(ctx, room, lee.ID)
	if err != nil || created || again != roomID {
		t.Fatalf("second CreateGroupRoom = %d, %v, %v", again, created, err)
	}
	if ok, _ := repo.IsParticipant(ctx, roomID, lee.ID); ok {
		t.Fatal("losing creator must not join the room")
	}

	stored, err := repo.FindRoomByStudy(ctx, *room.StudyID)
	if err != nil || stored.ID != roomID || stored.Type != chat.RoomTypeGroup {
		t.Fatalf("FindRoomByStudy = %+v, %v", stored, err)
	}

	for _, m := range []chat.Member{lee, park} {
		if added, err := repo.AddParticipant(ctx, roomID, m.ID); err != nil || !added {
			t.Fatalf("AddParticipant(%s) = %v, %v", m.Name, added, err)
		}
	}
	if added, err := repo.AddParticipant(ctx, roomID, lee.ID); err != nil || added {
		t.Fatalf("repeated AddParticipant = %v, %v", added, err)
	}
	ids, err := repo.ListParticipantIDs(ctx, roomID)
	if err != nil || len(ids) != 3 {
		t.Fatalf("participants = %v, %v", ids, err)
	}

	msg, err := chat.NewMessage(roomID, kim, "hello", 0, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	saved, marks, err := repo.SaveMessage(ctx, *msg)
	if err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("message id not assigned")
	}
	if len(marks) != len(ids) {
		t.Fatalf("read marks = %d, participants = %d", len(marks), len(ids))
	}
	for _, mk := range marks {
		if mk.MessageID != saved.ID || mk.RoomID != roomID {
			t.Fatalf("mark = %+v", mk)
		}
		if want := mk.MemberID == kim.ID; mk.Read != want {
			t.Fatalf("member %d read = %v, want %v", mk.MemberID, mk.Read, want)
		}
	}

	if n, err := repo.CountUnread(ctx, roomID, kim.ID); err != nil || n != 0 {
		t.Fatalf("sender unread = %d, %v", n, err)
	}
	if n, err := repo.CountUnread(ctx, roomID, lee.ID); err != nil || n != 1 {
		t.Fatalf("lee unread = %d, %v", n, err)
	}

	if n, err := repo.MarkRead(ctx, roomID, lee.ID); err != nil || n != 1 {
		t.Fatalf("MarkRead = %d, %v", n, err)
	}
	if n, err := repo.MarkRead(ctx, roomID, lee.ID); err != nil || n != 0 {
		t.Fatalf("repeated MarkRead = %d, %v", n, err)
	}
	if n, _ := repo.CountUnread(ctx, roomID, lee.ID); n != 0 {
		t.Fatalf("lee unread after MarkRead = %d", n)
	}
	if n, _ := repo.CountUnread(ctx, roomID, park.ID); n != 1 {
		t.Fatalf("park unread = %d", n)
	}
}

func TestPgChatRepositoryHistoryWindow(t *testing.T) {
	pool := openTestPool(t)
	repo := NewPgChatRepository(pool)
	ctx := context.Background()

	kim := seedMember(t, pool, "kim")
	room, _ := chat.NewGroupRoom(time.Now().UnixNano(), "history")
	roomID, _, err := repo.CreateGroupRoom(ctx, room, kim.ID)
	if err != nil {
		t.Fatal(err)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := range 5 {
		msg, _ := chat.NewMessage(roomID, kim, fmt.Sprintf("m%d", i), 0, base.Add(time.Duration(i)*time.Second))
		if _, _, err := repo.SaveMessage(ctx, *msg); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.GetMessagesByRoom(ctx, roomID, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Content != "m2" || got[1].Content != "m3" {
		t.Fatalf("window = %+v", got)
	}
	if got[0].SenderEmail != kim.Email || got[0].SenderName != kim.Name {
		t.Fatalf("sender not joined: %+v", got[0])
	}
}

func TestPgChatRepositoryDirectRoomIsOrderIndependent(t *testing.T) {
	pool := openTestPool(t)
	repo := NewPgChatRepository(pool)
	ctx := context.Background()

	kim := seedMember(t, pool, "kim")
	lee := seedMember(t, pool, "lee")

	forward, _ := chat.NewDirectRoom(kim, lee)
	first, created, err := repo.FindOrCreateDirectRoom(ctx, forward, kim.ID, lee.ID)
	if err != nil || !created {
		t.Fatalf("first = %d, %v, %v", first, created, err)
	}

	reverse, _ := chat.NewDirectRoom(lee, kim)
	second, created, err := repo.FindOrCreateDirectRoom(ctx, reverse, lee.ID, kim.ID)
	if err != nil || created || second != first {
		t.Fatalf("reverse = %d, %v, %v; want %d", second, created, err, first)
	}

	ids, err := repo.ListParticipantIDs(ctx, first)
	if err != nil || len(ids) != 2 {
		t.Fatalf("participants = %v, %v", ids, err)
	}
	room, err := repo.FindRoom(ctx, first)
	if err != nil || room.Type != chat.RoomTypeDirect || room.DirectKey == nil || *room.DirectKey != chat.DirectKey(kim.ID, lee.ID) {
		t.Fatalf("FindRoom = %+v, %v", room, err)
	}
}
