package chat

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDirectKeyIsOrderIndependent(t *testing.T) {
	if DirectKey(3, 9) != DirectKey(9, 3) {
		t.Fatal("direct key must not depend on argument order")
	}
	if DirectKey(3, 9) != "3:9" {
		t.Fatalf("unexpected key %q", DirectKey(3, 9))
	}
}

func TestNewDirectRoom(t *testing.T) {
	sender := Member{ID: 1, Name: "kim"}
	receiver := Member{ID: 2, Name: "lee"}

	room, err := NewDirectRoom(sender, receiver)
	if err != nil {
		t.Fatalf("NewDirectRoom: %v", err)
	}
	if room.Type != RoomTypeDirect || room.DirectKey == nil || *room.DirectKey != "1:2" {
		t.Fatalf("unexpected room %+v", room)
	}
	if room.Name != "lee 💬 kim" {
		t.Fatalf("unexpected name %q", room.Name)
	}

	if _, err := NewDirectRoom(sender, sender); !errors.Is(err, ErrInvalidDirectPair) {
		t.Fatalf("expected ErrInvalidDirectPair, got %v", err)
	}
}

func TestNewGroupRoom(t *testing.T) {
	room, err := NewGroupRoom(4, "Go 스터디")
	if err != nil {
		t.Fatal(err)
	}
	if room.Type != RoomTypeGroup || room.StudyID == nil || *room.StudyID != 4 {
		t.Fatalf("unexpected room %+v", room)
	}
	if room.Name != "Go 스터디의 채팅방" {
		t.Fatalf("unexpected name %q", room.Name)
	}
	if _, err := NewGroupRoom(0, "x"); !errors.Is(err, ErrInvalidStudy) {
		t.Fatalf("expected ErrInvalidStudy, got %v", err)
	}
}

func TestNewMessage(t *testing.T) {
	sender := Member{ID: 1, Email: "kim@study.ping", Name: "kim"}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("KST", 9*3600))

	msg, err := NewMessage(7, sender, "  hello  ", 700, now)
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if msg.Content != "hello" || msg.RoomID != 7 || msg.SenderID != 1 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.CreatedAt.Location() != time.UTC {
		t.Fatal("created_at should be normalized to UTC")
	}

	if _, err := NewMessage(7, sender, "   ", 700, now); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := NewMessage(7, sender, strings.Repeat("a", 11), 10, now); !errors.Is(err, ErrContentTooLong) {
		t.Fatalf("expected ErrContentTooLong, got %v", err)
	}
	// The bound counts runes, not bytes.
	if _, err := NewMessage(7, sender, strings.Repeat("가", 10), 10, now); err != nil {
		t.Fatalf("10 runes should fit a bound of 10: %v", err)
	}
	if _, err := NewMessage(7, sender, strings.Repeat("a", 700), 0, now); err != nil {
		t.Fatalf("default bound should accept 700 runes: %v", err)
	}
}

func TestInitialReadMarks(t *testing.T) {
	msg := Message{ID: 42, RoomID: 7, SenderID: 1}
	marks := InitialReadMarks(msg, []int64{1, 2, 3})
	if len(marks) != 3 {
		t.Fatalf("expected one mark per participant, got %d", len(marks))
	}
	read := 0
	for _, m := range marks {
		if m.MessageID != 42 || m.RoomID != 7 {
			t.Fatalf("mark references wrong message: %+v", m)
		}
		if m.Read {
			read++
			if m.MemberID != 1 {
				t.Fatalf("only the sender's mark starts read, got %+v", m)
			}
		}
	}
	if read != 1 {
		t.Fatalf("expected exactly one read mark, got %d", read)
	}
}

func TestTopicRoundTrip(t *testing.T) {
	if TopicFor(7) != "/topic/chat/study/7" {
		t.Fatalf("unexpected topic %q", TopicFor(7))
	}
	if PublishDestination(7) != "/publish/7" {
		t.Fatalf("unexpected destination %q", PublishDestination(7))
	}
	id, err := ParseTopic(TopicFor(12))
	if err != nil || id != 12 {
		t.Fatalf("ParseTopic = %d, %v", id, err)
	}
	id, err = ParsePublishDestination("/publish/5")
	if err != nil || id != 5 {
		t.Fatalf("ParsePublishDestination = %d, %v", id, err)
	}
	for _, bad := range []string{"", "/publish/", "/publish/x", "/publish/-1", "/publish/1/2", "/topic/chat/study/1"} {
		if _, err := ParsePublishDestination(bad); !errors.Is(err, ErrInvalidDestination) {
			t.Errorf("ParsePublishDestination(%q) = %v", bad, err)
		}
	}
}
