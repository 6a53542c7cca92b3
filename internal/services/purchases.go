package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkau/inkshelf/internal/config"
	"github.com/avolkau/inkshelf/internal/database"
	"github.com/avolkau/inkshelf/internal/database/books"
	"github.com/avolkau/inkshelf/internal/database/purchases"
	"github.com/avolkau/inkshelf/internal/entities"
)

var (
	ErrBookNotFound           = errors.New("book not found")
	ErrPurchaseNotFound       = errors.New("purchase not found")
	ErrNotPurchasable         = errors.New("free books cannot be purchased")
	ErrAlreadyPurchased       = errors.New("book already purchased")
	ErrInvalidStateTransition = errors.New("purchase cannot be cancelled in its current status")
)

// PurchaseService owns the purchase lifecycle: creation with simulated
// payment, and cancellation. Download quota and window values are
// computed here at creation time and frozen onto the record; the
// storage layer never recomputes them.
type PurchaseService struct {
	books     *books.Repository
	purchases *purchases.Repository
	cfg       config.Downloads
	now       func() time.Time
}

func NewPurchaseService(db *database.Database, cfg config.Downloads) *PurchaseService {
	return &PurchaseService{
		books:     books.NewRepository(db.DB),
		purchases: purchases.NewRepository(db.DB),
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetClock overrides the service clock. Test hook.
func (s *PurchaseService) SetClock(now func() time.Time) {
	s.now = now
}

// CreatePurchase buys a book for a user. Payment is simulated and
// always succeeds, so the purchase is created already completed.
//
// Rejected with ErrBookNotFound, ErrNotPurchasable (free book) or
// ErrAlreadyPurchased (an existing completed purchase; returned
// together with that purchase so callers can attach it). A cancelled or
// failed prior purchase is reset in place, which is the only way to
// obtain a fresh download window for the pair: the (user, book)
// uniqueness constraint permits at most one row.
func (s *PurchaseService) CreatePurchase(userID, bookID uint, paymentMethod string) (*entities.Purchase, error) {
	book, err := s.books.GetByID(bookID)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to load book: %w", err)
	}

	if book.Free() {
		return nil, ErrNotPurchasable
	}

	existing, err := s.purchases.GetByUserAndBook(userID, bookID)
	if err != nil && !errors.Is(err, purchases.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing purchase: %w", err)
	}
	if existing != nil {
		if existing.Status == entities.PurchaseStatusCompleted {
			return existing, ErrAlreadyPurchased
		}
		return s.reissue(existing, book, paymentMethod)
	}

	now := s.now()
	purchase := &entities.Purchase{
		OrderID:       newOrderID(),
		UserID:        userID,
		BookID:        bookID,
		AmountCents:   book.PriceCents,
		Status:        entities.PurchaseStatusCompleted,
		PaymentMethod: paymentMethod,
		BookTitle:     book.Title,
		BookAuthor:    book.Author,
		BookType:      book.Type,
		MaxDownloads:  s.cfg.MaxDownloads,
		PurchasedAt:   now,
	}
	purchase.DownloadWindowHours = s.cfg.WindowHours
	purchase.DownloadExpiry = now.Add(time.Duration(s.cfg.WindowHours) * time.Hour)

	if err := s.purchases.Create(purchase); err != nil {
		// A concurrent create for the same pair loses at the unique
		// constraint; surface it the same way as the app-level check.
		if isUniqueViolation(err) {
			return nil, ErrAlreadyPurchased
		}
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	return purchase, nil
}

// reissue revives a cancelled or failed purchase as a fresh completed
// one: new order ID, zeroed counters and a newly computed window.
func (s *PurchaseService) reissue(purchase *entities.Purchase, book *entities.Book, paymentMethod string) (*entities.Purchase, error) {
	now := s.now()

	purchase.OrderID = newOrderID()
	purchase.AmountCents = book.PriceCents
	purchase.Status = entities.PurchaseStatusCompleted
	purchase.PaymentMethod = paymentMethod
	purchase.BookTitle = book.Title
	purchase.BookAuthor = book.Author
	purchase.BookType = book.Type
	purchase.DownloadsUsed = 0
	purchase.MaxDownloads = s.cfg.MaxDownloads
	purchase.DownloadWindowHours = s.cfg.WindowHours
	purchase.PurchasedAt = now
	purchase.DownloadExpiry = now.Add(time.Duration(s.cfg.WindowHours) * time.Hour)
	purchase.LastDownloadedAt = nil
	purchase.ExpiryNotified = false

	if err := s.purchases.Save(purchase); err != nil {
		return nil, fmt.Errorf("failed to reissue purchase: %w", err)
	}
	return purchase, nil
}

// CancelPurchase moves a completed purchase to cancelled. Any other
// current status is ErrInvalidStateTransition. Cancellation neither
// revokes already-issued download history nor resets the purchase's
// counters or window.
func (s *PurchaseService) CancelPurchase(purchaseID, userID uint) (*entities.Purchase, error) {
	purchase, err := s.purchases.GetByID(purchaseID)
	if err != nil {
		if errors.Is(err, purchases.ErrNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}

	// Purchases are visible only to their owner.
	if purchase.UserID != userID {
		return nil, ErrPurchaseNotFound
	}

	if purchase.Status != entities.PurchaseStatusCompleted {
		return nil, ErrInvalidStateTransition
	}

	purchase.Status = entities.PurchaseStatusCancelled
	if err := s.purchases.Save(purchase); err != nil {
		return nil, fmt.Errorf("failed to cancel purchase: %w", err)
	}

	return purchase, nil
}

// ListPurchases returns the user's purchases, newest first.
func (s *PurchaseService) ListPurchases(userID uint, limit, offset int) ([]entities.Purchase, int64, error) {
	return s.purchases.GetForUser(userID, limit, offset)
}

// GetPurchase returns one of the user's purchases by ID.
func (s *PurchaseService) GetPurchase(purchaseID, userID uint) (*entities.Purchase, error) {
	purchase, err := s.purchases.GetByID(purchaseID)
	if err != nil {
		if errors.Is(err, purchases.ErrNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	if purchase.UserID != userID {
		return nil, ErrPurchaseNotFound
	}
	return purchase, nil
}

func newOrderID() string {
	return "ord_" + uuid.NewString()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}
