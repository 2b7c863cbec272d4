package chat

import "time"

// Participant joins a Room and a Member.
// Primary key: (RoomID, MemberID)
type Participant struct {
	RoomID    int64     `db:"chat_room_id"`
	MemberID  int64     `db:"member_id"`
	CreatedAt time.Time `db:"created_at"`
}
