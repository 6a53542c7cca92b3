package users

import (
	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListIDs returns the IDs of all active users. Used by the broadcast
// fan-out task.
func (r *Repository) ListIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.User{}).Pluck("id", &ids).Error
	return ids, err
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}
