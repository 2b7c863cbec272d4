package chat

import (
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultMaxContentLength is the content bound used when none is configured.
const DefaultMaxContentLength = 700

// Message is an immutable log entry in a room.
type Message struct {
	ID          int64     `db:"id"`
	RoomID      int64     `db:"chat_room_id"`
	SenderID    int64     `db:"member_id"`
	SenderEmail string    `db:"email"`
	SenderName  string    `db:"name"`
	Content     string    `db:"content"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewMessage validates content and returns a message ready to persist.
// Content is trimmed; its length is counted in runes against maxLen
// (DefaultMaxContentLength when maxLen <= 0).
func NewMessage(roomID int64, sender Member, content string, maxLen int, now time.Time) (*Message, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxContentLength
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > maxLen {
		return nil, ErrContentTooLong
	}
	if now.IsZero() {
		now = time.Now()
	}
	return &Message{
		RoomID:      roomID,
		SenderID:    sender.ID,
		SenderEmail: sender.Email,
		SenderName:  sender.Name,
		Content:     content,
		CreatedAt:   now.UTC(),
	}, nil
}
