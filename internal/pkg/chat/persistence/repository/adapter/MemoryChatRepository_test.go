package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
)

func TestMemoryDirectRoomConvergesUnderConcurrency(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	a := chat.Member{ID: 1, Name: "kim"}
	b := chat.Member{ID: 2, Name: "lee"}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[int64]struct{}{}
		created int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender, receiver := a, b
			if i%2 == 1 {
				sender, receiver = b, a
			}
			room, err := chat.NewDirectRoom(sender, receiver)
			if err != nil {
				t.Error(err)
				return
			}
			id, c, err := repo.FindOrCreateDirectRoom(ctx, room, sender.ID, receiver.ID)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			ids[id] = struct{}{}
			if c {
				created++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(ids) != 1 || created != 1 {
		t.Fatalf("expected one room created once, got ids=%v created=%d", ids, created)
	}
	for id := range ids {
		got, _ := repo.ListParticipantIDs(ctx, id)
		if len(got) != 2 || got[0] != 1 || got[1] != 2 {
			t.Fatalf("participants = %v", got)
		}
	}
}

func TestMemorySaveMessageWritesReadMarks(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	room, _ := chat.NewGroupRoom(3, "algo")
	roomID, _, _ := repo.CreateGroupRoom(ctx, room, 1)
	_, _ = repo.AddParticipant(ctx, roomID, 2)
	_, _ = repo.AddParticipant(ctx, roomID, 3)

	saved, marks, err := repo.SaveMessage(ctx, chat.Message{RoomID: roomID, SenderID: 2, Content: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == 0 || len(marks) != 3 {
		t.Fatalf("saved=%+v marks=%v", saved, marks)
	}
	if n, _ := repo.CountUnread(ctx, roomID, 2); n != 0 {
		t.Fatalf("sender unread = %d", n)
	}
	if n, _ := repo.CountUnread(ctx, roomID, 1); n != 1 {
		t.Fatalf("leader unread = %d", n)
	}

	repo.FailSave = errors.New("disk full")
	if _, _, err := repo.SaveMessage(ctx, chat.Message{RoomID: roomID, SenderID: 2, Content: "lost"}); err == nil {
		t.Fatal("expected failure")
	}
	if got := len(repo.ReadMarks(saved.ID + 1)); got != 0 {
		t.Fatalf("failed save left %d marks", got)
	}
}

func TestMemoryHistoryWindow(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	room, _ := chat.NewGroupRoom(1, "go")
	roomID, _, _ := repo.CreateGroupRoom(ctx, room, 1)
	for _, c := range []string{"a", "b", "c", "d", "e"} {
		if _, _, err := repo.SaveMessage(ctx, chat.Message{RoomID: roomID, SenderID: 1, Content: c}); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := repo.GetMessagesByRoom(ctx, roomID, 2, 0)
	if len(got) != 2 || got[0].Content != "d" || got[1].Content != "e" {
		t.Fatalf("newest window = %+v", got)
	}
	got, _ = repo.GetMessagesByRoom(ctx, roomID, 2, 4)
	if len(got) != 1 || got[0].Content != "a" {
		t.Fatalf("last page = %+v", got)
	}
	if got, _ := repo.GetMessagesByRoom(ctx, roomID, 2, 9); len(got) != 0 {
		t.Fatalf("past the end = %+v", got)
	}
}
