package database

import "creatorhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Content{},
		&models.Like{},
		&models.Comment{},
		&models.Subscription{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.Notification{},
		&models.NotificationPreference{},
		&models.DeviceToken{},
		&models.Gig{},
		&models.SearchHistory{},
	}
}
