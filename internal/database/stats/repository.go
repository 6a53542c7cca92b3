package stats

import (
	"time"

	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/entities"
)

// Repository answers the aggregate queries behind the admin dashboard.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// TopBook is one row of the most-downloaded-books aggregate.
type TopBook struct {
	BookID    uint   `json:"book_id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Downloads int64  `json:"downloads"`
}

// Revenue sums the amounts of all completed purchases, in cents.
func (r *Repository) Revenue() (int64, error) {
	var total *int64
	err := r.db.Model(&entities.Purchase{}).
		Where("status = ?", entities.PurchaseStatusCompleted).
		Select("SUM(amount_cents)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

func (r *Repository) CompletedPurchases() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Purchase{}).
		Where("status = ?", entities.PurchaseStatusCompleted).Count(&count).Error
	return count, err
}

func (r *Repository) TotalDownloads() (int64, error) {
	var count int64
	err := r.db.Model(&entities.DownloadRecord{}).Count(&count).Error
	return count, err
}

func (r *Repository) DownloadsSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entities.DownloadRecord{}).
		Where("downloaded_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *Repository) TotalBooks() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

func (r *Repository) TotalUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// TopBooks returns the most downloaded books, busiest first.
func (r *Repository) TopBooks(limit int) ([]TopBook, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []TopBook
	err := r.db.Model(&entities.DownloadRecord{}).
		Select("download_records.book_id, books.title, books.author, COUNT(download_records.id) AS downloads").
		Joins("JOIN books ON books.id = download_records.book_id").
		Group("download_records.book_id, books.title, books.author").
		Order("downloads DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
