// Package notifications fans chat and notification events out to websocket
// connections, in-process or across instances through Redis.
package notifications

import (
	"strconv"

	"creatorhub/internal/models"
)

// Chat event types, also used as outbound frame names.
const (
	EventNewMessage   = "newMessage"
	EventTyping       = "typing"
	EventNotification = "notification"
	EventJoined       = "joined"
	EventLeft         = "left"
	EventError        = "error"
)

// ChatEvent is emitted into a conversation room.
type ChatEvent struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversationId"`
	Data           any    `json:"data"`
}

// NotificationEvent is emitted to every live connection of UserID.
type NotificationEvent struct {
	UserID       uint                `json:"userId"`
	Notification models.Notification `json:"notification"`
}

// TypingData is the payload of a typing ChatEvent.
type TypingData struct {
	ConversationID uint `json:"conversationId"`
	UserID         uint `json:"userId"`
	IsTyping       bool `json:"isTyping"`
}

// UserRoom is the room every registered connection of a user joins.
func UserRoom(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// ConversationRoom is the room a chat connection joins to receive a conversation's events.
func ConversationRoom(conversationID uint) string {
	return "conversation:" + strconv.FormatUint(uint64(conversationID), 10)
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

// ConversationChannel derives the Redis channel name for a conversation.
func ConversationChannel(conversationID uint) string {
	return "chat:conv:" + strconv.FormatUint(uint64(conversationID), 10)
}
