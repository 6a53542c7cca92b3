package entities

import (
	"time"

	"gorm.io/gorm"
)

type BookType string

const (
	BookTypeEbook     BookType = "ebook"
	BookTypeAudiobook BookType = "audiobook"
)

// Book is a catalog item. PriceCents == 0 marks a free book: free books
// are downloadable by anyone without a purchase.
type Book struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Title       string   `gorm:"index;size:512" json:"title"`
	Author      string   `gorm:"index;size:256" json:"author"`
	Description string   `gorm:"type:text" json:"description,omitempty"`
	PriceCents  int64    `json:"price_cents"`
	Type        BookType `gorm:"size:20;default:'ebook'" json:"type"`
	CoverURL    string   `gorm:"size:2048" json:"cover_url,omitempty"`

	// AssetRef is the raw stored pointer to the file content (a Google
	// Drive URL or bare file identifier). DownloadURL and PreviewURL are
	// derived from it at catalog-write time and preferred when present.
	AssetRef    string `gorm:"size:2048" json:"-"`
	DownloadURL string `gorm:"size:2048" json:"-"`
	PreviewURL  string `gorm:"size:2048" json:"preview_url,omitempty"`

	Active    bool           `gorm:"default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// Free reports whether the book is downloadable without a purchase.
func (b *Book) Free() bool {
	return b.PriceCents == 0
}
