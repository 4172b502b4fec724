// Package service provides application business logic (chat, feeds, interactions, etc.).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"creatorhub/internal/feed"
	"creatorhub/internal/middleware"
	"creatorhub/internal/models"
	"creatorhub/internal/notifications"
	"creatorhub/internal/observability"
	"creatorhub/internal/repository"
)

// MaxMessageLength bounds a chat message in characters.
const MaxMessageLength = 2000

// ConversationView is a conversation as seen by one participant.
type ConversationView struct {
	ID               uint                 `json:"id"`
	Participants     []models.UserSummary `json:"participants"`
	OtherParticipant *models.UserSummary  `json:"other_participant"`
	LastMessage      *models.Message      `json:"last_message"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func (v ConversationView) activity() time.Time {
	if v.LastMessage != nil {
		return v.LastMessage.CreatedAt
	}
	return v.CreatedAt
}

// ChatService provides chat and conversation business logic.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	bus      notifications.EventBus
	notifier Notifier
	urls     feed.URLBuilder
	now      func() time.Time
}

// NewChatService returns a new ChatService.
func NewChatService(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	bus notifications.EventBus,
	notifier Notifier,
	urls feed.URLBuilder,
) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		bus:      bus,
		notifier: notifier,
		urls:     urls,
		now:      time.Now,
	}
}

// StartConversation returns the direct conversation between userID and otherID,
// creating it when missing. created reports whether this call created it.
func (s *ChatService) StartConversation(ctx context.Context, userID, otherID uint) (*ConversationView, bool, error) {
	if otherID == 0 {
		return nil, false, models.NewValidationError("participant is required")
	}
	if userID == otherID {
		return nil, false, models.NewValidationError("Cannot start a conversation with yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, false, storeError(err, "User", otherID)
	}

	conv, created, err := s.chatRepo.FindOrCreateConversation(ctx, userID, otherID)
	if err != nil {
		return nil, false, models.NewInternalError(err)
	}
	view := s.view(conv, userID, nil)
	return &view, created, nil
}

// SendMessage stores a message and fans it out. Realtime and notification
// failures never undo the stored message.
func (s *ChatService) SendMessage(ctx context.Context, senderID, conversationID uint, text string) (*models.Message, error) {
	ctx, span := observability.StartSpan(ctx, "chat", "send_message")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		err = models.NewValidationError("Message text is required")
		return nil, err
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		err = models.NewValidationError(fmt.Sprintf("Message must be at most %d characters", MaxMessageLength))
		return nil, err
	}

	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		err = storeError(err, "Conversation", conversationID)
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		err = models.NewUnauthorizedError("You are not a participant in this conversation")
		return nil, err
	}

	msg := &models.Message{ConversationID: conversationID, SenderID: senderID, Text: text}
	if err = s.chatRepo.CreateMessage(ctx, msg); err != nil {
		err = models.NewInternalError(err)
		return nil, err
	}

	s.publish(ctx, notifications.ChatEvent{Type: notifications.EventNewMessage, ConversationID: conversationID, Data: msg})

	if other := conv.OtherParticipantID(senderID); other != 0 {
		s.notifier.Notify(ctx, NotificationInput{
			UserID:  other,
			Type:    models.NotificationMessage,
			Title:   "New Message",
			Message: "You have a new message",
			Data:    map[string]any{"conversationId": conversationID, "messageId": msg.ID},
			Route:   fmt.Sprintf("/chat/%d", conversationID),
		})
	}
	return msg, nil
}

func (s *ChatService) publish(ctx context.Context, ev notifications.ChatEvent) {
	if err := s.bus.PublishChat(ctx, ev); err != nil {
		observability.SideEffectFailures.WithLabelValues("chat_publish").Inc()
		middleware.Logger.WarnContext(ctx, "chat event publish failed",
			slog.String("type", ev.Type),
			slog.Uint64("conversation_id", uint64(ev.ConversationID)),
			slog.String("error", err.Error()),
		)
	}
}

// ListConversations returns the user's conversations, most recently active first.
func (s *ChatService) ListConversations(ctx context.Context, userID uint) ([]ConversationView, error) {
	convs, err := s.chatRepo.ListConversations(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	ids := make([]uint, len(convs))
	for i := range convs {
		ids[i] = convs[i].ID
	}
	latest, err := s.chatRepo.LatestMessages(ctx, ids)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	views := make([]ConversationView, 0, len(convs))
	for i := range convs {
		var last *models.Message
		if m, ok := latest[convs[i].ID]; ok {
			last = &m
		}
		views = append(views, s.view(&convs[i], userID, last))
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].activity().After(views[j].activity())
	})
	return views, nil
}

// GetMessages returns the conversation's messages oldest first and marks the
// viewer's incoming ones as read.
func (s *ChatService) GetMessages(ctx context.Context, conversationID, viewerID uint) ([]models.Message, error) {
	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, storeError(err, "Conversation", conversationID)
	}
	if !conv.HasParticipant(viewerID) {
		return nil, models.NewUnauthorizedError("You are not a participant in this conversation")
	}
	msgs, err := s.chatRepo.MarkReadAndList(ctx, conversationID, viewerID, s.now())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// SendTyping publishes a typing indicator to the conversation room.
func (s *ChatService) SendTyping(ctx context.Context, userID, conversationID uint, isTyping bool) error {
	ok, err := s.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewUnauthorizedError("You are not a participant in this conversation")
	}
	s.publish(ctx, notifications.ChatEvent{
		Type:           notifications.EventTyping,
		ConversationID: conversationID,
		Data:           notifications.TypingData{ConversationID: conversationID, UserID: userID, IsTyping: isTyping},
	})
	return nil
}

// IsParticipant reports whether userID takes part in the conversation.
func (s *ChatService) IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error) {
	ok, err := s.chatRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return ok, nil
}

func (s *ChatService) view(conv *models.Conversation, viewerID uint, last *models.Message) ConversationView {
	v := ConversationView{
		ID:           conv.ID,
		Participants: make([]models.UserSummary, 0, len(conv.Participants)),
		LastMessage:  last,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
	otherID := conv.OtherParticipantID(viewerID)
	for i := range conv.Participants {
		summary := userSummary(&conv.Participants[i], s.urls)
		v.Participants = append(v.Participants, *summary)
		if summary.ID == otherID {
			other := *summary
			v.OtherParticipant = &other
		}
	}
	return v
}
