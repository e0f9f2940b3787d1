package repository

import (
	"context"
	"fmt"

	"foodgram/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Add(ctx context.Context, userID, authorID string) error
	Remove(ctx context.Context, userID, authorID string) error
	Exists(ctx context.Context, userID, authorID string) (bool, error)
	// ListAuthors returns the authors userID follows, ordered by username.
	ListAuthors(ctx context.Context, userID string, page, limit int) ([]models.User, int64, error)
	// FollowedAmong returns which of authorIDs userID follows.
	FollowedAmong(ctx context.Context, userID string, authorIDs []string) (map[string]bool, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Add(ctx context.Context, userID, authorID string) error {
	sub := &models.Subscription{UserID: userID, AuthorID: authorID}
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("add subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) Remove(ctx context.Context, userID, authorID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	if result.Error != nil {
		return fmt.Errorf("remove subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subscriptionRepository) Exists(ctx context.Context, userID, authorID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *subscriptionRepository) ListAuthors(ctx context.Context, userID string, page, limit int) ([]models.User, int64, error) {
	var authors []models.User
	var total int64

	// a fresh chain per query, gorm statements are not reusable after Count
	followedBy := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.User{}).
			Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
			Where("subscriptions.user_id = ?", userID)
	}

	if err := followedBy().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	if err := followedBy().
		Order("users.username").
		Limit(limit).
		Offset(offset(page, limit)).
		Find(&authors).Error; err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	return authors, total, nil
}

func (r *subscriptionRepository) FollowedAmong(ctx context.Context, userID string, authorIDs []string) (map[string]bool, error) {
	followed := make(map[string]bool, len(authorIDs))
	if userID == "" || len(authorIDs) == 0 {
		return followed, nil
	}

	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("followed authors: %w", err)
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}
