package repository

import (
	"context"
	"fmt"
	"time"

	"creatorhub/internal/models"
	"creatorhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for chat data operations
type ChatRepository interface {
	// FindOrCreateConversation returns the conversation for the pair, creating it when missing.
	// Concurrent calls for the same pair converge on one row.
	FindOrCreateConversation(ctx context.Context, userA, userB uint) (*models.Conversation, bool, error)
	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error)
	ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error)
	LatestMessages(ctx context.Context, conversationIDs []uint) (map[uint]models.Message, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	// MarkReadAndList flags the viewer's unread incoming messages as read and returns the
	// whole conversation oldest first, in one transaction.
	MarkReadAndList(ctx context.Context, conversationID, viewerID uint, now time.Time) ([]models.Message, error)
}

// chatRepository implements ChatRepository
type chatRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db, log: observability.NewRepoLogger("conversations")}
}

func (r *chatRepository) FindOrCreateConversation(ctx context.Context, userA, userB uint) (*models.Conversation, bool, error) {
	defer observability.TrackQuery("upsert", "conversations")()
	low, high := models.NormalizePair(userA, userB)

	var conv models.Conversation
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := models.Conversation{UserLowID: low, UserHighID: high}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&candidate)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			created = true
			participants := []models.ConversationParticipant{
				{ConversationID: candidate.ID, UserID: low},
				{ConversationID: candidate.ID, UserID: high},
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participants).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Participants").
			Where("user_low_id = ? AND user_high_id = ?", low, high).
			First(&conv).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "find or create")
		return nil, false, fmt.Errorf("find or create conversation %d/%d: %w", low, high, err)
	}
	if created {
		r.log.LogCreate(ctx, map[string]any{"conversation_id": conv.ID})
	}
	return &conv, created, nil
}

func (r *chatRepository) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	defer observability.TrackQuery("select", "conversations")()
	var conv models.Conversation
	if err := r.db.WithContext(ctx).Preload("Participants").First(&conv, id).Error; err != nil {
		return nil, fmt.Errorf("get conversation %d: %w", id, err)
	}
	return &conv, nil
}

func (r *chatRepository) IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("is participant: %w", err)
	}
	return n > 0, nil
}

func (r *chatRepository) ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	defer observability.TrackQuery("select", "conversations")()
	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// LatestMessages loads the newest message of each conversation with a single correlated query.
func (r *chatRepository) LatestMessages(ctx context.Context, conversationIDs []uint) (map[uint]models.Message, error) {
	latest := make(map[uint]models.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return latest, nil
	}
	defer observability.TrackQuery("select", "messages")()

	var msgs []models.Message
	err := r.db.WithContext(ctx).Preload("Sender").
		Where("messages.conversation_id IN ?", conversationIDs).
		Where(`messages.id = (SELECT m2.id FROM messages AS m2
			WHERE m2.conversation_id = messages.conversation_id
			ORDER BY m2.created_at DESC, m2.id DESC LIMIT 1)`).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("latest messages: %w", err)
	}
	for _, m := range msgs {
		latest[m.ConversationID] = m
	}
	return latest, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	defer observability.TrackQuery("insert", "messages")()
	db := r.db.WithContext(ctx)
	if err := db.Omit("Sender").Create(msg).Error; err != nil {
		r.log.LogError(ctx, err, "create message")
		return fmt.Errorf("create message: %w", err)
	}
	var sender models.User
	if err := db.First(&sender, msg.SenderID).Error; err == nil {
		msg.Sender = &sender
	}
	return nil
}

func (r *chatRepository) MarkReadAndList(ctx context.Context, conversationID, viewerID uint, now time.Time) ([]models.Message, error) {
	defer observability.TrackQuery("update", "messages")()
	var msgs []models.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, viewerID, false).
			Updates(map[string]any{"is_read": true, "read_at": now}).Error
		if err != nil {
			return err
		}
		return tx.Preload("Sender").
			Where("conversation_id = ?", conversationID).
			Order("created_at ASC, id ASC").
			Find(&msgs).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "mark read")
		return nil, fmt.Errorf("messages for conversation %d: %w", conversationID, err)
	}
	return msgs, nil
}
