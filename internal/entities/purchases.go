package entities

import "time"

type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// Purchase records one user's entitlement to one book. The compound
// unique index on (user_id, book_id) is the only concurrency safeguard
// for purchase creation: a second concurrent insert for the same pair
// fails at the constraint, not through application locking.
//
// DownloadExpiry is computed once at purchase time from PurchasedAt +
// DownloadWindowHours and never recomputed. Re-purchasing (after a
// cancellation) is the only way to obtain a fresh window.
type Purchase struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	OrderID string `gorm:"uniqueIndex;size:64" json:"order_id"`
	UserID  uint   `gorm:"uniqueIndex:idx_purchases_user_book" json:"user_id"`
	BookID  uint   `gorm:"uniqueIndex:idx_purchases_user_book" json:"book_id"`

	AmountCents   int64          `json:"amount_cents"`
	Status        PurchaseStatus `gorm:"size:20;default:'pending'" json:"status"`
	PaymentMethod string         `gorm:"size:50" json:"payment_method,omitempty"`

	// Descriptive book fields snapshotted at purchase time so the
	// purchase history stays stable across later catalog edits.
	BookTitle  string   `gorm:"size:512" json:"book_title"`
	BookAuthor string   `gorm:"size:256" json:"book_author"`
	BookType   BookType `gorm:"size:20" json:"book_type"`

	DownloadsUsed       int         `gorm:"default:0" json:"downloads_used"`
	MaxDownloads        int         `gorm:"default:3" json:"max_downloads"`
	DownloadWindowHours int         `gorm:"default:24" json:"download_window_hours"`
	DownloadExpiry      time.Time   `json:"download_expiry"`
	LastDownloadedAt    *time.Time  `json:"last_downloaded_at,omitempty"`
	DeviceUses          []DeviceUse `gorm:"foreignKey:PurchaseID" json:"device_uses,omitempty"`

	// ExpiryNotified marks that the expiring-window reminder was sent.
	ExpiryNotified bool `gorm:"default:false" json:"-"`

	PurchasedAt time.Time `json:"purchased_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Book Book `gorm:"foreignKey:BookID" json:"-"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// DeviceUse is one append-only device entry recorded per granted
// download against a purchase.
type DeviceUse struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PurchaseID uint      `gorm:"index" json:"purchase_id"`
	UserAgent  string    `gorm:"size:512" json:"user_agent,omitempty"`
	IPAddress  string    `gorm:"size:64" json:"ip_address,omitempty"`
	UsedAt     time.Time `json:"used_at"`
}

func (DeviceUse) TableName() string {
	return "purchase_device_uses"
}
