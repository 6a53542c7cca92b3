package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkau/inkshelf/internal/config"
	"github.com/avolkau/inkshelf/internal/database"
	"github.com/avolkau/inkshelf/internal/entities"
)

func setupScheduler(t *testing.T) (*ExpiryReminderScheduler, *database.Database) {
	t.Helper()
	db, err := database.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewExpiryReminderScheduler(db, config.Scheduler{
		ExpiryReminderEnabled: true,
		Schedule:              "0 * * * *",
		ExpiryReminderWindow:  2 * time.Hour,
	})
	return s, db
}

func seedPurchase(t *testing.T, db *database.Database, expiry time.Time, used int) *entities.Purchase {
	t.Helper()
	purchase := &entities.Purchase{
		OrderID:        "ord_" + expiry.Format("150405") + "_" + time.Now().Format("05.000000000"),
		UserID:         1,
		BookID:         uint(used + 1),
		Status:         entities.PurchaseStatusCompleted,
		BookTitle:      "Solaris",
		DownloadsUsed:  used,
		MaxDownloads:   3,
		DownloadExpiry: expiry,
		PurchasedAt:    expiry.Add(-24 * time.Hour),
	}
	require.NoError(t, db.DB.Create(purchase).Error)
	return purchase
}

func TestExpiryReminders(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("reminds purchases expiring within the window", func(t *testing.T) {
		s, db := setupScheduler(t)
		s.SetClock(func() time.Time { return now })

		soon := seedPurchase(t, db, now.Add(time.Hour), 1)
		later := seedPurchase(t, db, now.Add(48*time.Hour), 0)

		s.runReminders()

		var reminders []entities.Notification
		require.NoError(t, db.DB.Find(&reminders).Error)
		require.Len(t, reminders, 1)
		assert.Equal(t, entities.NotificationKindWindowExpiry, reminders[0].Kind)
		assert.Equal(t, soon.UserID, reminders[0].UserID)
		assert.Contains(t, reminders[0].Body, "Solaris")
		assert.Contains(t, reminders[0].Body, "2 download(s) left")

		var stored entities.Purchase
		require.NoError(t, db.DB.First(&stored, soon.ID).Error)
		assert.True(t, stored.ExpiryNotified)

		stored = entities.Purchase{}
		require.NoError(t, db.DB.First(&stored, later.ID).Error)
		assert.False(t, stored.ExpiryNotified)
	})

	t.Run("each purchase is reminded once", func(t *testing.T) {
		s, db := setupScheduler(t)
		s.SetClock(func() time.Time { return now })

		seedPurchase(t, db, now.Add(time.Hour), 0)

		s.runReminders()
		s.runReminders()

		var count int64
		require.NoError(t, db.DB.Model(&entities.Notification{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("spent quota is skipped", func(t *testing.T) {
		s, db := setupScheduler(t)
		s.SetClock(func() time.Time { return now })

		seedPurchase(t, db, now.Add(time.Hour), 3)

		s.runReminders()

		var count int64
		require.NoError(t, db.DB.Model(&entities.Notification{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}
