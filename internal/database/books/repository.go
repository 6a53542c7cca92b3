package books

import (
	"errors"

	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/entities"
)

var ErrNotFound = errors.New("book not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows catalog listings. Zero values mean "no filter".
type ListFilter struct {
	Type       entities.BookType
	Query      string // matches title or author, case-insensitive
	OnlyActive bool
	Limit      int
	Offset     int
}

func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &book, nil
}

func (r *Repository) List(filter ListFilter) ([]entities.Book, int64, error) {
	var books []entities.Book
	var total int64

	query := r.db.Model(&entities.Book{})
	if filter.OnlyActive {
		query = query.Where("active = ?", true)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	err := query.Order("title ASC").Find(&books).Error
	return books, total, err
}

func (r *Repository) Update(book *entities.Book) error {
	return r.db.Save(book).Error
}

func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Book{}, id).Error
}
