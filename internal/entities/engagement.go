package entities

import "time"

// Review is one user's rating of a book. One review per (user, book).
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_reviews_user_book" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_reviews_user_book" json:"book_id"`
	Rating    int       `json:"rating"` // 1..5
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Book Book `gorm:"foreignKey:BookID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_wishlist_user_book" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_wishlist_user_book" json:"book_id"`
	CreatedAt time.Time `json:"created_at"`

	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

type NotificationKind string

const (
	NotificationKindBroadcast    NotificationKind = "broadcast"
	NotificationKindPurchase     NotificationKind = "purchase"
	NotificationKindWindowExpiry NotificationKind = "window_expiry"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index" json:"user_id"`
	Kind      NotificationKind `gorm:"size:30" json:"kind"`
	Title     string           `gorm:"size:256" json:"title"`
	Body      string           `gorm:"type:text" json:"body,omitempty"`
	Read      bool             `gorm:"default:false" json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
