package chat

import (
	"fmt"
	"time"
)

// RoomType distinguishes study group rooms from 1:1 rooms.
type RoomType string

const (
	RoomTypeGroup  RoomType = "GROUP"
	RoomTypeDirect RoomType = "DIRECT"
)

// Valid reports whether t is a known room type.
func (t RoomType) Valid() bool {
	return t == RoomTypeGroup || t == RoomTypeDirect
}

// Room is a chat context: a GROUP room tied 1:1 to a study, or a DIRECT room
// between exactly two members.
type Room struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Type      RoomType  `db:"type"`
	StudyID   *int64    `db:"study_id"`   // set for GROUP rooms only
	DirectKey *string   `db:"direct_key"` // set for DIRECT rooms only, see DirectKey
	CreatedAt time.Time `db:"created_at"`
}

// RoomSummary is one entry of a member's room list.
type RoomSummary struct {
	RoomID      int64
	Name        string
	Type        RoomType
	UnreadCount int64
}

// DirectKey returns the canonical key of the unordered pair (a, b). Storage
// keeps it unique so that a pair can never own two DIRECT rooms.
func DirectKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// NewDirectRoom shapes a DIRECT room between sender and receiver.
func NewDirectRoom(sender, receiver Member) (Room, error) {
	if sender.ID == 0 || receiver.ID == 0 || sender.ID == receiver.ID {
		return Room{}, ErrInvalidDirectPair
	}
	key := DirectKey(sender.ID, receiver.ID)
	return Room{
		Name:      receiver.Name + " 💬 " + sender.Name,
		Type:      RoomTypeDirect,
		DirectKey: &key,
	}, nil
}

// NewGroupRoom shapes the GROUP room that belongs to a study.
func NewGroupRoom(studyID int64, studyTitle string) (Room, error) {
	if studyID <= 0 {
		return Room{}, ErrInvalidStudy
	}
	id := studyID
	return Room{
		Name:    studyTitle + "의 채팅방",
		Type:    RoomTypeGroup,
		StudyID: &id,
	}, nil
}
