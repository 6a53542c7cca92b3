package downloads

import (
	"time"

	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Record appends one ledger entry. Entries are immutable once written.
func (r *Repository) Record(record *entities.DownloadRecord) error {
	if record.DownloadedAt.IsZero() {
		record.DownloadedAt = time.Now()
	}
	return r.db.Create(record).Error
}

// GetForUser retrieves paginated history for a user, newest first.
func (r *Repository) GetForUser(userID uint, limit, offset int) ([]entities.DownloadRecord, int64, error) {
	var records []entities.DownloadRecord
	var total int64

	query := r.db.Model(&entities.DownloadRecord{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("downloaded_at DESC").Limit(limit).Offset(offset).Find(&records).Error
	return records, total, err
}

// CountForPurchase returns how many ledger entries reference a purchase.
func (r *Repository) CountForPurchase(purchaseID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.DownloadRecord{}).
		Where("purchase_id = ?", purchaseID).Count(&count).Error
	return count, err
}

// ClearForUser bulk-deletes a user's download history. Returns the
// number of removed entries.
func (r *Repository) ClearForUser(userID uint) (int64, error) {
	result := r.db.Where("user_id = ?", userID).Delete(&entities.DownloadRecord{})
	return result.RowsAffected, result.Error
}

// DeleteOlderThan removes ledger entries past the retention horizon.
func (r *Repository) DeleteOlderThan(olderThan time.Time) (int64, error) {
	result := r.db.Where("downloaded_at < ?", olderThan).Delete(&entities.DownloadRecord{})
	return result.RowsAffected, result.Error
}
