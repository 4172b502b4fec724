package repository

import (
	"context"
	"errors"
	"fmt"

	"creatorhub/internal/models"
	"creatorhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errInvalidTarget = errors.New("like target must name exactly one of content or comment")

// InteractionRepository defines persistence for likes and comments.
type InteractionRepository interface {
	// RemoveLike deletes the like and decrements the target counter. It reports whether a row was removed.
	RemoveLike(ctx context.Context, userID uint, target models.LikeTarget) (bool, error)
	// AddLike inserts the like and increments the target counter. It reports false when the like already existed.
	AddLike(ctx context.Context, userID uint, target models.LikeTarget) (bool, error)
	LikeCount(ctx context.Context, target models.LikeTarget) (int, error)
	LikedTargets(ctx context.Context, userID uint, keys []string) (map[string]bool, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	ListComments(ctx context.Context, contentID uint) ([]models.Comment, error)
	ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error)
	DeleteComment(ctx context.Context, comment *models.Comment) error
}

type interactionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewInteractionRepository returns an InteractionRepository backed by db.
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db, log: observability.NewRepoLogger("likes")}
}

// counterScope selects the row whose like_count a target owns.
func counterScope(tx *gorm.DB, target models.LikeTarget) *gorm.DB {
	if target.ContentID != nil {
		return tx.Model(&models.Content{}).Where("id = ?", *target.ContentID)
	}
	return tx.Model(&models.Comment{}).Where("id = ?", *target.CommentID)
}

func (r *interactionRepository) RemoveLike(ctx context.Context, userID uint, target models.LikeTarget) (bool, error) {
	if !target.Valid() {
		return false, errInvalidTarget
	}
	defer observability.TrackQuery("delete", "likes")()

	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND target_key = ?", userID, target.Key()).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return counterScope(tx, target).
			UpdateColumn("like_count", gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END")).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "unlike")
		return false, fmt.Errorf("remove like %s: %w", target.Key(), err)
	}
	return removed, nil
}

func (r *interactionRepository) AddLike(ctx context.Context, userID uint, target models.LikeTarget) (bool, error) {
	if !target.Valid() {
		return false, errInvalidTarget
	}
	defer observability.TrackQuery("insert", "likes")()

	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := models.Like{
			UserID:    userID,
			TargetKey: target.Key(),
			ContentID: target.ContentID,
			CommentID: target.CommentID,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		inserted = true
		return counterScope(tx, target).UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "like")
		return false, fmt.Errorf("add like %s: %w", target.Key(), err)
	}
	return inserted, nil
}

func (r *interactionRepository) LikeCount(ctx context.Context, target models.LikeTarget) (int, error) {
	if !target.Valid() {
		return 0, errInvalidTarget
	}
	var count int
	if err := counterScope(r.db.WithContext(ctx), target).Select("like_count").Scan(&count).Error; err != nil {
		return 0, fmt.Errorf("like count %s: %w", target.Key(), err)
	}
	return count, nil
}

// LikedTargets returns the subset of target keys the user has liked.
func (r *interactionRepository) LikedTargets(ctx context.Context, userID uint, keys []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(keys))
	if userID == 0 || len(keys) == 0 {
		return liked, nil
	}
	defer observability.TrackQuery("select", "likes")()

	var found []string
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND target_key IN ?", userID, keys).
		Pluck("target_key", &found).Error
	if err != nil {
		return nil, fmt.Errorf("liked targets: %w", err)
	}
	for _, k := range found {
		liked[k] = true
	}
	return liked, nil
}

// CreateComment inserts the comment and bumps the content's comment counter together.
func (r *interactionRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("insert", "comments")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Content{}).Where("id = ?", comment.ContentID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "create comment")
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *interactionRepository) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()
	var comment models.Comment
	if err := r.withReplyCount(r.db.WithContext(ctx)).Preload("User").First(&comment, "comments.id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return &comment, nil
}

func (r *interactionRepository) withReplyCount(q *gorm.DB) *gorm.DB {
	return q.Model(&models.Comment{}).
		Select("comments.*, (SELECT COUNT(*) FROM comments AS r WHERE r.parent_id = comments.id) AS reply_count")
}

func (r *interactionRepository) ListComments(ctx context.Context, contentID uint) ([]models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()
	var comments []models.Comment
	err := r.withReplyCount(r.db.WithContext(ctx)).Preload("User").
		Where("comments.content_id = ? AND comments.parent_id IS NULL", contentID).
		Order("comments.created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *interactionRepository) ListReplies(ctx context.Context, parentID uint) ([]models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()
	var replies []models.Comment
	err := r.withReplyCount(r.db.WithContext(ctx)).Preload("User").
		Where("comments.parent_id = ?", parentID).
		Order("comments.created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return replies, nil
}

// DeleteComment removes the comment, its reply tree and their likes, and lowers the content's counter.
func (r *interactionRepository) DeleteComment(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("delete", "comments")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}
		ids := []uint{comment.ID}
		for frontier := ids; len(frontier) > 0; {
			var children []uint
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Content{}).Where("id = ?", comment.ContentID).
			UpdateColumn("comments_count", gorm.Expr("CASE WHEN comments_count >= ? THEN comments_count - ? ELSE 0 END", len(ids), len(ids))).Error
	})
	if err != nil {
		if !IsNotFound(err) {
			r.log.LogError(ctx, err, "delete comment")
		}
		return fmt.Errorf("delete comment %d: %w", comment.ID, err)
	}
	return nil
}
