package repository

import (
	"context"

	"perfumeria/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListUnread(ctx context.Context, limit int) ([]model.Notification, error)
}

type notificationRepo struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) ListUnread(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	var out []model.Notification
	err := r.db.WithContext(ctx).Where("read = false").Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}
