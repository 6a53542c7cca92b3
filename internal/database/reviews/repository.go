package reviews

import (
	"errors"

	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/entities"
)

var (
	ErrNotFound      = errors.New("review not found")
	ErrAlreadyExists = errors.New("review already exists for this book")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(review *entities.Review) error {
	var existing entities.Review
	err := r.db.Where("user_id = ? AND book_id = ?", review.UserID, review.BookID).First(&existing).Error
	if err == nil {
		return ErrAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(review).Error
}

func (r *Repository) GetByID(id uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.First(&review, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *Repository) GetForBook(bookID uint, limit, offset int) ([]entities.Review, int64, error) {
	var reviews []entities.Review
	var total int64

	query := r.db.Model(&entities.Review{}).Where("book_id = ?", bookID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reviews).Error
	return reviews, total, err
}

// AverageRating returns the mean rating for a book and the review count.
func (r *Repository) AverageRating(bookID uint) (float64, int64, error) {
	var count int64
	if err := r.db.Model(&entities.Review{}).Where("book_id = ?", bookID).Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var avg float64
	err := r.db.Model(&entities.Review{}).
		Where("book_id = ?", bookID).
		Select("AVG(rating)").Scan(&avg).Error
	return avg, count, err
}

func (r *Repository) Delete(id, userID uint) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&entities.Review{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
