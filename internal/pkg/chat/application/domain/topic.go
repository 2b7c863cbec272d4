package chat

import (
	"strconv"
	"strings"
)

const (
	// TopicPrefix is where clients subscribe to a room's live messages.
	TopicPrefix = "/topic/chat/study/"
	// PublishPrefix is where clients send messages into a room.
	PublishPrefix = "/publish/"
)

// TopicFor maps a room to its delivery topic.
func TopicFor(roomID int64) string {
	return TopicPrefix + strconv.FormatInt(roomID, 10)
}

// PublishDestination maps a room to the destination clients send to.
func PublishDestination(roomID int64) string {
	return PublishPrefix + strconv.FormatInt(roomID, 10)
}

// ParseTopic extracts the room id from a subscribe destination.
func ParseTopic(destination string) (int64, error) {
	return parseRoomDestination(destination, TopicPrefix)
}

// ParsePublishDestination extracts the room id from a send destination.
func ParsePublishDestination(destination string) (int64, error) {
	return parseRoomDestination(destination, PublishPrefix)
}

func parseRoomDestination(destination, prefix string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(destination), prefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return 0, ErrInvalidDestination
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidDestination
	}
	return id, nil
}
