package chat

// ReadMark is the per-member read flag of one message.
// Exactly one exists per (message, member) for every participant of the room
// at the time the message was created.
type ReadMark struct {
	RoomID    int64 `db:"chat_room_id"`
	MemberID  int64 `db:"member_id"`
	MessageID int64 `db:"chat_message_id"`
	Read      bool  `db:"is_read"`
}

// InitialReadMarks derives the read marks of a freshly created message: the
// sender's own mark starts read, every other participant's starts unread.
func InitialReadMarks(msg Message, participantIDs []int64) []ReadMark {
	marks := make([]ReadMark, 0, len(participantIDs))
	for _, id := range participantIDs {
		marks = append(marks, ReadMark{
			RoomID:    msg.RoomID,
			MemberID:  id,
			MessageID: msg.ID,
			Read:      id == msg.SenderID,
		})
	}
	return marks
}
