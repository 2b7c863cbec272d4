package chat

import "errors"

// Domain-level errors for chat behaviors
var (
	ErrRoomNotFound       = errors.New("chat: room not found")
	ErrSenderNotFound     = errors.New("chat: sender not found")
	ErrMemberNotFound     = errors.New("chat: member not found")
	ErrNotParticipant     = errors.New("chat: member is not a participant of the room")
	ErrContentTooLong     = errors.New("chat: message content too long")
	ErrEmptyMessage       = errors.New("chat: empty message")
	ErrInvalidDirectPair  = errors.New("chat: a direct room needs two distinct members")
	ErrInvalidStudy       = errors.New("chat: invalid study")
	ErrInvalidDestination = errors.New("chat: invalid room destination")
)
