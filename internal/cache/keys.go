package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UnreadNotificationsKeyPrefix = "notifications:unread:%d"
	UserProfileKeyPrefix         = "user:%d:profile"
)

const (
	UnreadNotificationsTTL = 1 * time.Minute
	UserProfileTTL         = 5 * time.Minute
)

func UnreadNotificationsKey(userID uint) string {
	return fmt.Sprintf(UnreadNotificationsKeyPrefix, userID)
}

func UserProfileKey(userID uint) string {
	return fmt.Sprintf(UserProfileKeyPrefix, userID)
}

// Invalidate deletes key. It is a no-op without a client.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUnreadNotifications(ctx context.Context, userID uint) {
	Invalidate(ctx, UnreadNotificationsKey(userID))
}

func InvalidateUserProfile(ctx context.Context, userID uint) {
	Invalidate(ctx, UserProfileKey(userID))
}
