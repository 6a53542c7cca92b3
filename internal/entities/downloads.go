package entities

import "time"

type DownloadType string

const (
	DownloadTypeFree      DownloadType = "free"
	DownloadTypePurchased DownloadType = "purchased"
)

// DownloadRecord is an immutable ledger entry written once per granted
// download. It weakly references the purchase: cancelling or deleting a
// purchase does not invalidate its history entries. Records are removed
// only by the user's bulk history clear or the retention cleanup task.
type DownloadRecord struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index:idx_downloads_user_time" json:"user_id"`
	BookID uint `gorm:"index" json:"book_id"`

	Type       DownloadType `gorm:"size:20" json:"type"`
	PurchaseID *uint        `gorm:"index" json:"purchase_id,omitempty"`

	// DownloadURL is the URL actually handed out, kept for audit.
	DownloadURL string `gorm:"size:2048" json:"download_url"`
	UserAgent   string `gorm:"size:512" json:"user_agent,omitempty"`
	IPAddress   string `gorm:"size:64" json:"ip_address,omitempty"`

	DownloadedAt time.Time `gorm:"index:idx_downloads_user_time,sort:desc" json:"downloaded_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Book Book `gorm:"foreignKey:BookID" json:"-"`
}

func (DownloadRecord) TableName() string {
	return "download_records"
}
