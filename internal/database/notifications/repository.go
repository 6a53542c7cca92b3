package notifications

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/entities"
)

var ErrNotFound = errors.New("notification not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(notification *entities.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	return r.db.Create(notification).Error
}

func (r *Repository) GetForUser(userID uint, limit, offset int) ([]entities.Notification, int64, error) {
	var notifications []entities.Notification
	var total int64

	query := r.db.Model(&entities.Notification{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	return notifications, total, err
}

func (r *Repository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).Count(&count).Error
	return count, err
}

// MarkRead flags one of the user's notifications as read.
func (r *Repository) MarkRead(id, userID uint) error {
	result := r.db.Model(&entities.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(userID uint) (int64, error) {
	result := r.db.Model(&entities.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}
