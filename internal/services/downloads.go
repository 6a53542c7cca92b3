package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/assets"
	"github.com/avolkau/inkshelf/internal/database"
	"github.com/avolkau/inkshelf/internal/database/books"
	"github.com/avolkau/inkshelf/internal/database/downloads"
	"github.com/avolkau/inkshelf/internal/database/purchases"
	"github.com/avolkau/inkshelf/internal/entities"
	"github.com/avolkau/inkshelf/internal/entitlement"
)

// ErrDownloadDenied is returned alongside the denying Decision when a
// grant is refused; the decision's Reason says why.
var ErrDownloadDenied = errors.New("download not permitted")

// ClientContext carries request metadata recorded in the ledger and on
// the purchase's device list.
type ClientContext struct {
	UserAgent string
	IPAddress string
}

// DownloadService is the gatekeeper in front of file URLs: it evaluates
// entitlement, resolves the asset URL and writes the ledger.
//
// GrantDownload runs the evaluation and the grant inside one database
// transaction that re-reads the purchase row, so two concurrent
// requests cannot both consume the last quota slot. (The original
// design evaluated and granted in two unserialized steps and accepted
// the resulting over-grant race; closing it here is a deliberate
// behavioral deviation.)
type DownloadService struct {
	db        *database.Database
	books     *books.Repository
	purchases *purchases.Repository
	downloads *downloads.Repository
	now       func() time.Time
}

func NewDownloadService(db *database.Database) *DownloadService {
	return &DownloadService{
		db:        db,
		books:     books.NewRepository(db.DB),
		purchases: purchases.NewRepository(db.DB),
		downloads: downloads.NewRepository(db.DB),
		now:       time.Now,
	}
}

// SetClock overrides the service clock. Test hook.
func (s *DownloadService) SetClock(now func() time.Time) {
	s.now = now
}

// CheckEligibility is the read-only decision step: no counters move and
// nothing is written.
func (s *DownloadService) CheckEligibility(userID, bookID uint) (entitlement.Decision, error) {
	book, err := s.books.GetByID(bookID)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			return entitlement.Decision{}, ErrBookNotFound
		}
		return entitlement.Decision{}, fmt.Errorf("failed to load book: %w", err)
	}

	purchase, err := s.completedPurchase(s.purchases, userID, book)
	if err != nil {
		return entitlement.Decision{}, err
	}

	return entitlement.Evaluate(book, purchase, s.now()), nil
}

// GrantDownload performs an entitled download: evaluates, resolves the
// asset URL, appends the ledger entry and, for purchased downloads,
// registers the download on the purchase. The ledger write is sequenced
// before the counter update.
//
// On denial the returned decision carries the reason and the error is
// ErrDownloadDenied.
func (s *DownloadService) GrantDownload(userID, bookID uint, client ClientContext) (*entities.DownloadRecord, entitlement.Decision, error) {
	book, err := s.books.GetByID(bookID)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			return nil, entitlement.Decision{}, ErrBookNotFound
		}
		return nil, entitlement.Decision{}, fmt.Errorf("failed to load book: %w", err)
	}

	url, err := assets.Resolve(book)
	if err != nil {
		return nil, entitlement.Decision{}, err
	}

	now := s.now()
	var record *entities.DownloadRecord
	var decision entitlement.Decision

	err = s.db.DB.Transaction(func(tx *gorm.DB) error {
		purchaseRepo := s.purchases.WithTx(tx)
		ledger := s.downloads.WithTx(tx)

		purchase, err := s.completedPurchase(purchaseRepo, userID, book)
		if err != nil {
			return err
		}

		decision = entitlement.Evaluate(book, purchase, now)
		if !decision.Allowed {
			return ErrDownloadDenied
		}

		record = &entities.DownloadRecord{
			UserID:       userID,
			BookID:       book.ID,
			Type:         entities.DownloadTypeFree,
			DownloadURL:  url,
			UserAgent:    client.UserAgent,
			IPAddress:    client.IPAddress,
			DownloadedAt: now,
		}
		if purchase != nil {
			record.Type = entities.DownloadTypePurchased
			record.PurchaseID = &purchase.ID
		}

		if err := ledger.Record(record); err != nil {
			return fmt.Errorf("failed to write download record: %w", err)
		}

		if purchase != nil {
			if err := purchaseRepo.RegisterDownload(purchase, client.UserAgent, client.IPAddress, now); err != nil {
				return fmt.Errorf("failed to register download on purchase: %w", err)
			}
			decision.Remaining = purchase.MaxDownloads - purchase.DownloadsUsed
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDownloadDenied) {
			return nil, decision, err
		}
		return nil, entitlement.Decision{}, err
	}

	return record, decision, nil
}

// History returns the user's download ledger, newest first.
func (s *DownloadService) History(userID uint, limit, offset int) ([]entities.DownloadRecord, int64, error) {
	return s.downloads.GetForUser(userID, limit, offset)
}

// ClearHistory bulk-deletes the user's ledger entries.
func (s *DownloadService) ClearHistory(userID uint) (int64, error) {
	return s.downloads.ClearForUser(userID)
}

// completedPurchase loads the user's completed purchase for a paid
// book. Free books never consult the purchase table.
func (s *DownloadService) completedPurchase(repo *purchases.Repository, userID uint, book *entities.Book) (*entities.Purchase, error) {
	if book.Free() {
		return nil, nil
	}
	purchase, err := repo.GetCompletedByUserAndBook(userID, book.ID)
	if err != nil {
		if errors.Is(err, purchases.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load purchase: %w", err)
	}
	return purchase, nil
}
