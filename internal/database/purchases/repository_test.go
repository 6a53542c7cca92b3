package purchases

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Purchase{}, &entities.DeviceUse{})
	require.NoError(t, err)

	return db
}

func newCompletedPurchase(userID, bookID uint, purchasedAt time.Time) *entities.Purchase {
	return &entities.Purchase{
		OrderID:             "ord-" + time.Now().Format("150405.000000000"),
		UserID:              userID,
		BookID:              bookID,
		AmountCents:         999,
		Status:              entities.PurchaseStatusCompleted,
		MaxDownloads:        3,
		DownloadWindowHours: 24,
		PurchasedAt:         purchasedAt,
		DownloadExpiry:      purchasedAt.Add(24 * time.Hour),
	}
}

func TestRepository_UniquePerUserAndBook(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	now := time.Now()
	first := newCompletedPurchase(1, 10, now)
	require.NoError(t, repo.Create(first))

	// Second insert for the same (user, book) pair trips the compound
	// unique index regardless of application-level checks.
	second := newCompletedPurchase(1, 10, now)
	second.OrderID = first.OrderID + "-dup"
	assert.Error(t, repo.Create(second))

	// A different book for the same user is fine.
	third := newCompletedPurchase(1, 11, now)
	third.OrderID = first.OrderID + "-other"
	assert.NoError(t, repo.Create(third))
}

func TestRepository_GetCompletedByUserAndBook(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	now := time.Now()
	cancelled := newCompletedPurchase(1, 10, now)
	cancelled.Status = entities.PurchaseStatusCancelled
	require.NoError(t, repo.Create(cancelled))

	_, err := repo.GetCompletedByUserAndBook(1, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	completed := newCompletedPurchase(2, 10, now)
	require.NoError(t, repo.Create(completed))

	found, err := repo.GetCompletedByUserAndBook(2, 10)
	require.NoError(t, err)
	assert.Equal(t, completed.ID, found.ID)
}

func TestRepository_RegisterDownload(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	purchasedAt := time.Now().Add(-time.Hour)
	purchase := newCompletedPurchase(1, 10, purchasedAt)
	require.NoError(t, repo.Create(purchase))
	originalExpiry := purchase.DownloadExpiry

	now := time.Now()
	require.NoError(t, repo.RegisterDownload(purchase, "test-agent", "10.0.0.1", now))

	reloaded, err := repo.GetByID(purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.DownloadsUsed)
	require.NotNil(t, reloaded.LastDownloadedAt)
	require.Len(t, reloaded.DeviceUses, 1)
	assert.Equal(t, "test-agent", reloaded.DeviceUses[0].UserAgent)
	assert.Equal(t, "10.0.0.1", reloaded.DeviceUses[0].IPAddress)

	// The download window never moves after creation.
	assert.WithinDuration(t, originalExpiry, reloaded.DownloadExpiry, time.Second)

	require.NoError(t, repo.RegisterDownload(reloaded, "test-agent", "10.0.0.1", now))
	reloaded, err = repo.GetByID(purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.DownloadsUsed)
	assert.Len(t, reloaded.DeviceUses, 2)
}

func TestRepository_GetForUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	base := time.Now()
	for i := 0; i < 5; i++ {
		p := newCompletedPurchase(1, uint(10+i), base.Add(time.Duration(-i)*time.Hour))
		p.OrderID = p.OrderID + string(rune('a'+i))
		require.NoError(t, repo.Create(p))
	}
	other := newCompletedPurchase(2, 99, base)
	other.OrderID = "other-user"
	require.NoError(t, repo.Create(other))

	list, total, err := repo.GetForUser(1, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, list, 3)
	// Newest first
	assert.True(t, list[0].PurchasedAt.After(list[1].PurchasedAt))
}

func TestRepository_ExpiringBetween(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	now := time.Now()

	soon := newCompletedPurchase(1, 10, now.Add(-23*time.Hour)) // expires in ~1h
	require.NoError(t, repo.Create(soon))

	later := newCompletedPurchase(1, 11, now) // expires in 24h
	later.OrderID = "later"
	require.NoError(t, repo.Create(later))

	expired := newCompletedPurchase(1, 12, now.Add(-48*time.Hour))
	expired.OrderID = "expired"
	require.NoError(t, repo.Create(expired))

	expiring, err := repo.ExpiringBetween(now, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, soon.ID, expiring[0].ID)

	require.NoError(t, repo.MarkExpiryNotified(soon.ID))
	expiring, err = repo.ExpiringBetween(now, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expiring)
}
