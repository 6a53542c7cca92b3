package wishlists

import (
	"errors"

	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/entities"
)

var ErrNotFound = errors.New("wishlist item not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add puts a book on the user's wishlist. Adding an already-listed book
// is a no-op.
func (r *Repository) Add(userID, bookID uint) (*entities.WishlistItem, error) {
	var existing entities.WishlistItem
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item := &entities.WishlistItem{UserID: userID, BookID: bookID}
	if err := r.db.Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repository) Remove(userID, bookID uint) error {
	result := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&entities.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetForUser(userID uint) ([]entities.WishlistItem, error) {
	var items []entities.WishlistItem
	err := r.db.Preload("Book").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *Repository) Contains(userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.WishlistItem{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).Count(&count).Error
	return count > 0, err
}
