package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"creatorhub/internal/feed"
	"creatorhub/internal/middleware"
	"creatorhub/internal/models"
	"creatorhub/internal/notifications"
	"creatorhub/internal/observability"
	"creatorhub/internal/push"
	"creatorhub/internal/repository"
)

// NotificationInput describes a notification to deliver to one recipient.
type NotificationInput struct {
	UserID  uint
	Type    models.NotificationType
	Title   string
	Message string
	Data    map[string]any
	Route   string
}

// Notifier is the fire-and-forget entry point engines use to notify users.
type Notifier interface {
	Notify(ctx context.Context, in NotificationInput)
}

// NotificationPage is one page of a user's inbox.
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
	HasMore       bool                  `json:"has_more"`
}

// NotificationSettingsInput holds a partial preference update.
type NotificationSettingsInput struct {
	Likes    *bool `json:"likes"`
	Comments *bool `json:"comments"`
	Mentions *bool `json:"mentions"`
	Messages *bool `json:"messages"`
	Follows  *bool `json:"follows"`
}

const (
	// notifyTimeout bounds a detached Notify call end to end.
	notifyTimeout = 10 * time.Second
	// pushTimeout bounds the device push inside Create.
	pushTimeout = 3 * time.Second
)

// NotificationService persists notifications and fans them out to live
// connections and registered devices.
type NotificationService struct {
	repo    repository.NotificationRepository
	devices repository.DeviceRepository
	bus     notifications.EventBus
	push    push.Sender

	notifyTimeout time.Duration
	pushTimeout   time.Duration
}

// NewNotificationService returns a new NotificationService.
func NewNotificationService(
	repo repository.NotificationRepository,
	devices repository.DeviceRepository,
	bus notifications.EventBus,
	sender push.Sender,
) *NotificationService {
	if sender == nil {
		sender = push.Noop{}
	}
	return &NotificationService{
		repo:          repo,
		devices:       devices,
		bus:           bus,
		push:          sender,
		notifyTimeout: notifyTimeout,
		pushTimeout:   pushTimeout,
	}
}

// Create persists the notification, publishes it to the recipient's live
// connections and pushes it to their devices when preferences allow.
// Only persistence failures are returned.
func (s *NotificationService) Create(ctx context.Context, in NotificationInput) (*models.Notification, error) {
	ctx, span := observability.StartSpan(ctx, "notifications", "create")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if in.UserID == 0 {
		err = models.NewValidationError("notification recipient is required")
		return nil, err
	}
	if !in.Type.Valid() {
		err = models.NewValidationError(fmt.Sprintf("unknown notification type %q", in.Type))
		return nil, err
	}

	n := &models.Notification{
		UserID:  in.UserID,
		Type:    in.Type,
		Title:   in.Title,
		Message: in.Message,
		Data:    in.Data,
		Route:   in.Route,
	}
	if err = s.repo.Create(ctx, n); err != nil {
		err = models.NewInternalError(err)
		return nil, err
	}
	observability.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()

	if pubErr := s.bus.PublishNotification(ctx, notifications.NotificationEvent{UserID: n.UserID, Notification: *n}); pubErr != nil {
		observability.SideEffectFailures.WithLabelValues("notification_publish").Inc()
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			slog.Uint64("notification_id", uint64(n.ID)),
			slog.String("error", pubErr.Error()),
		)
	}

	s.pushToDevices(ctx, n)
	return n, nil
}

func (s *NotificationService) pushToDevices(ctx context.Context, n *models.Notification) {
	pref, err := s.repo.GetPreference(ctx, n.UserID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "notification preferences unavailable", slog.String("error", err.Error()))
		return
	}
	if !pref.Allows(n.Type) {
		return
	}

	tokens, err := s.devices.TokensFor(ctx, n.UserID)
	if err != nil || len(tokens) == 0 {
		if err != nil {
			middleware.Logger.WarnContext(ctx, "device lookup failed", slog.String("error", err.Error()))
		}
		return
	}

	pushCtx, cancel := context.WithTimeout(ctx, s.pushTimeout)
	stale, err := s.push.Send(pushCtx, tokens, push.Message{Title: n.Title, Body: n.Message, Data: pushData(n)})
	cancel()
	if err != nil {
		observability.SideEffectFailures.WithLabelValues("device_push").Inc()
		middleware.Logger.WarnContext(ctx, "device push failed",
			slog.Uint64("user_id", uint64(n.UserID)),
			slog.String("error", err.Error()),
		)
	}
	if len(stale) > 0 {
		if err := s.devices.DeleteTokens(ctx, stale); err != nil {
			middleware.Logger.WarnContext(ctx, "stale token cleanup failed", slog.String("error", err.Error()))
		}
	}
}

func pushData(n *models.Notification) map[string]string {
	data := map[string]string{
		"type":           string(n.Type),
		"notificationId": fmt.Sprint(n.ID),
	}
	if n.Route != "" {
		data["route"] = n.Route
	}
	for k, v := range n.Data {
		data[k] = fmt.Sprint(v)
	}
	return data
}

// Notify creates the notification detached from the caller's cancellation
// but bounded by its own deadline. Failures are logged and never reach the caller.
func (s *NotificationService) Notify(ctx context.Context, in NotificationInput) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if _, err := s.Create(ctx, in); err != nil {
		observability.SideEffectFailures.WithLabelValues("notification_create").Inc()
		observability.LogAsyncOperationError(ctx, "notification_create", err, map[string]any{
			"user_id": in.UserID,
			"type":    string(in.Type),
		})
	}
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, page, limit int) (*NotificationPage, error) {
	page, limit = feed.NormalizePage(page, limit)
	skip := (page - 1) * limit
	items, total, err := s.repo.List(ctx, userID, skip, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &NotificationPage{
		Notifications: items,
		Total:         total,
		Page:          page,
		Limit:         limit,
		HasMore:       total > int64(skip+limit),
	}, nil
}

func (s *NotificationService) ListUnread(ctx context.Context, userID uint) ([]models.Notification, error) {
	items, err := s.repo.ListUnread(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	n, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// MarkAsRead is idempotent; marking a read or foreign notification succeeds without effect.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uint) error {
	if _, err := s.repo.MarkAsRead(ctx, userID, id); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	if _, err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes one of the user's notifications.
func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	rows, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return models.NewInternalError(err)
	}
	if rows == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

func (s *NotificationService) GetSettings(ctx context.Context, userID uint) (models.NotificationPreference, error) {
	pref, err := s.repo.GetPreference(ctx, userID)
	if err != nil {
		return pref, models.NewInternalError(err)
	}
	return pref, nil
}

// UpdateSettings applies the set fields of in over the current preferences.
func (s *NotificationService) UpdateSettings(ctx context.Context, userID uint, in NotificationSettingsInput) (models.NotificationPreference, error) {
	pref, err := s.GetSettings(ctx, userID)
	if err != nil {
		return pref, err
	}
	for _, f := range []struct {
		src *bool
		dst *bool
	}{
		{in.Likes, &pref.Likes},
		{in.Comments, &pref.Comments},
		{in.Mentions, &pref.Mentions},
		{in.Messages, &pref.Messages},
		{in.Follows, &pref.Follows},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	pref.UserID = userID
	if err := s.repo.SavePreference(ctx, &pref); err != nil {
		return pref, models.NewInternalError(err)
	}
	return pref, nil
}

// RegisterDevice stores a push token for the user.
func (s *NotificationService) RegisterDevice(ctx context.Context, userID uint, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.NewValidationError("device token is required")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	switch platform {
	case "ios", "android", "web":
	default:
		return models.NewValidationError("platform must be ios, android or web")
	}
	if err := s.devices.Upsert(ctx, &models.DeviceToken{UserID: userID, Token: token, Platform: platform}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *NotificationService) UnregisterDevice(ctx context.Context, userID uint, token string) error {
	rows, err := s.devices.Delete(ctx, userID, token)
	if err != nil {
		return models.NewInternalError(err)
	}
	if rows == 0 {
		return models.NewNotFoundError("Device", token)
	}
	return nil
}
