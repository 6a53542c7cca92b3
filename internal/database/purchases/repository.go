package purchases

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/entities"
)

var ErrNotFound = errors.New("purchase not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction. Used by
// the download grant path, which re-reads and mutates the purchase row
// inside one transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(purchase *entities.Purchase) error {
	return r.db.Create(purchase).Error
}

func (r *Repository) GetByID(id uint) (*entities.Purchase, error) {
	var purchase entities.Purchase
	err := r.db.Preload("DeviceUses").First(&purchase, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

// GetByUserAndBook returns the purchase for a (user, book) pair in any
// status, or ErrNotFound. At most one row exists per pair.
func (r *Repository) GetByUserAndBook(userID, bookID uint) (*entities.Purchase, error) {
	var purchase entities.Purchase
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

// GetCompletedByUserAndBook returns the completed purchase for a
// (user, book) pair, or ErrNotFound when none confers entitlement.
func (r *Repository) GetCompletedByUserAndBook(userID, bookID uint) (*entities.Purchase, error) {
	var purchase entities.Purchase
	err := r.db.Where("user_id = ? AND book_id = ? AND status = ?",
		userID, bookID, entities.PurchaseStatusCompleted).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *Repository) GetForUser(userID uint, limit, offset int) ([]entities.Purchase, int64, error) {
	var purchases []entities.Purchase
	var total int64

	query := r.db.Model(&entities.Purchase{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("purchased_at DESC").Limit(limit).Offset(offset).Find(&purchases).Error
	return purchases, total, err
}

func (r *Repository) Save(purchase *entities.Purchase) error {
	return r.db.Save(purchase).Error
}

// RegisterDownload mutates the purchase's quota counters after a
// granted download: increments DownloadsUsed, appends a device-use
// entry and stamps LastDownloadedAt. DownloadExpiry is deliberately
// untouched; it never changes after purchase creation.
func (r *Repository) RegisterDownload(purchase *entities.Purchase, userAgent, ipAddress string, now time.Time) error {
	updates := map[string]any{
		"downloads_used":     gorm.Expr("downloads_used + 1"),
		"last_downloaded_at": now,
	}
	if err := r.db.Model(purchase).Updates(updates).Error; err != nil {
		return err
	}

	use := &entities.DeviceUse{
		PurchaseID: purchase.ID,
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		UsedAt:     now,
	}
	if err := r.db.Create(use).Error; err != nil {
		return err
	}

	purchase.DownloadsUsed++
	purchase.LastDownloadedAt = &now
	return nil
}

// ExpiringBetween returns completed purchases whose download window
// expires inside the given interval and that have not been reminded
// yet. Used by the expiry reminder scheduler.
func (r *Repository) ExpiringBetween(from, to time.Time) ([]entities.Purchase, error) {
	var purchases []entities.Purchase
	err := r.db.
		Where("status = ? AND expiry_notified = ? AND download_expiry > ? AND download_expiry <= ?",
			entities.PurchaseStatusCompleted, false, from, to).
		Find(&purchases).Error
	return purchases, err
}

// MarkExpiryNotified records that the expiring-window reminder went out.
func (r *Repository) MarkExpiryNotified(purchaseID uint) error {
	return r.db.Model(&entities.Purchase{}).
		Where("id = ?", purchaseID).
		Update("expiry_notified", true).Error
}
