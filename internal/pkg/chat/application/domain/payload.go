package chat

import (
	"encoding/json"
	"errors"
	"time"
)

// MessagePayload is the JSON form of a persisted message as it travels over
// the fan-out channel and out to subscribed sessions. RoomID selects the
// delivery topic on the receiving instance.
type MessagePayload struct {
	MessageID   int64     `json:"messageId"`
	RoomID      int64     `json:"roomId"`
	SenderID    int64     `json:"senderId"`
	SenderEmail string    `json:"senderEmail"`
	SenderName  string    `json:"senderName"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

var ErrBadPayload = errors.New("chat: malformed message payload")

func PayloadOf(m Message) MessagePayload {
	return MessagePayload{
		MessageID:   m.ID,
		RoomID:      m.RoomID,
		SenderID:    m.SenderID,
		SenderEmail: m.SenderEmail,
		SenderName:  m.SenderName,
		Content:     m.Content,
		Timestamp:   m.CreatedAt,
	}
}

// DecodePayload parses a fan-out payload. A payload without a room is
// rejected since it cannot be routed.
func DecodePayload(b []byte) (MessagePayload, error) {
	var p MessagePayload
	if err := json.Unmarshal(b, &p); err != nil {
		return MessagePayload{}, ErrBadPayload
	}
	if p.RoomID <= 0 {
		return MessagePayload{}, ErrBadPayload
	}
	return p, nil
}
