package repository

import (
	"context"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for the chat domain.
// Lookups that find nothing return the matching chat sentinel (ErrRoomNotFound).
type ChatRepository interface {
	FindRoom(ctx context.Context, roomID int64) (*chat.Room, error)
	FindRoomByStudy(ctx context.Context, studyID int64) (*chat.Room, error)
	ListRoomsByMember(ctx context.Context, memberID int64) ([]chat.RoomSummary, error)

	// CreateGroupRoom stores a GROUP room with its leader as first participant.
	// When the study already owns a room, that room's id is returned with created=false.
	CreateGroupRoom(ctx context.Context, room chat.Room, leaderID int64) (id int64, created bool, err error)
	// FindOrCreateDirectRoom returns the DIRECT room keyed by room.DirectKey,
	// creating it with both members as participants when absent.
	FindOrCreateDirectRoom(ctx context.Context, room chat.Room, memberA, memberB int64) (id int64, created bool, err error)

	ListParticipantIDs(ctx context.Context, roomID int64) ([]int64, error)
	IsParticipant(ctx context.Context, roomID int64, memberID int64) (bool, error)
	// AddParticipant is idempotent; added is false when the member was already in the room.
	AddParticipant(ctx context.Context, roomID int64, memberID int64) (added bool, err error)

	// SaveMessage persists m together with one read mark per current participant
	// in a single transaction. Either both are stored or neither is.
	SaveMessage(ctx context.Context, m chat.Message) (chat.Message, []chat.ReadMark, error)
	// GetMessagesByRoom returns a window over the newest messages, oldest first.
	GetMessagesByRoom(ctx context.Context, roomID int64, limit int, offset int) ([]chat.Message, error)

	MarkRead(ctx context.Context, roomID int64, memberID int64) (int64, error)
	CountUnread(ctx context.Context, roomID int64, memberID int64) (int64, error)
}
