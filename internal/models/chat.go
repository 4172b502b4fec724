package models

import "time"

// Conversation is a direct conversation between two users.
// UserLowID/UserHighID hold the normalized pair and are unique together.
type Conversation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserLowID    uint      `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:1" json:"-"`
	UserHighID   uint      `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:2" json:"-"`
	Participants []User    `gorm:"many2many:conversation_participants;" json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizePair orders two user ids so that the same pair always maps to one key.
func NormalizePair(a, b uint) (low, high uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// HasParticipant reports whether userID is one of the pair.
func (c *Conversation) HasParticipant(userID uint) bool {
	return userID != 0 && (c.UserLowID == userID || c.UserHighID == userID)
}

// OtherParticipantID returns the counterpart of userID, or 0 when userID is not in the pair.
func (c *Conversation) OtherParticipantID(userID uint) uint {
	switch userID {
	case c.UserLowID:
		return c.UserHighID
	case c.UserHighID:
		return c.UserLowID
	}
	return 0
}

// ConversationParticipant is the join row behind Conversation.Participants.
type ConversationParticipant struct {
	ConversationID uint      `gorm:"primaryKey" json:"conversation_id"`
	UserID         uint      `gorm:"primaryKey;index" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// Message is an immutable chat message; only the read flag changes after creation.
type Message struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Text           string     `gorm:"type:text;not null" json:"text"`
	SenderID       uint       `gorm:"not null;index" json:"sender_id"`
	Sender         *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ConversationID uint       `gorm:"not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	IsRead         bool       `gorm:"default:false" json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`
}
