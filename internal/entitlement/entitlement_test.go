package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avolkau/inkshelf/internal/entities"
)

func completedPurchase(used, max int, expiry time.Time) *entities.Purchase {
	return &entities.Purchase{
		Status:              entities.PurchaseStatusCompleted,
		DownloadsUsed:       used,
		MaxDownloads:        max,
		DownloadWindowHours: 24,
		DownloadExpiry:      expiry,
	}
}

func TestEvaluate_FreeBook(t *testing.T) {
	now := time.Now()
	book := &entities.Book{PriceCents: 0}

	t.Run("allowed without any purchase", func(t *testing.T) {
		d := Evaluate(book, nil, now)
		assert.True(t, d.Allowed)
		assert.True(t, d.Unlimited())
	})

	t.Run("allowed regardless of an exhausted purchase", func(t *testing.T) {
		p := completedPurchase(3, 3, now.Add(-time.Hour))
		d := Evaluate(book, p, now)
		assert.True(t, d.Allowed)
		assert.True(t, d.Unlimited())
	})
}

func TestEvaluate_PaidBook(t *testing.T) {
	now := time.Now()
	book := &entities.Book{PriceCents: 999}

	t.Run("no purchase", func(t *testing.T) {
		d := Evaluate(book, nil, now)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonPurchaseRequired, d.Reason)
	})

	t.Run("cancelled purchase does not entitle", func(t *testing.T) {
		p := completedPurchase(0, 3, now.Add(time.Hour))
		p.Status = entities.PurchaseStatusCancelled
		d := Evaluate(book, p, now)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonPurchaseRequired, d.Reason)
	})

	t.Run("completed purchase within quota and window", func(t *testing.T) {
		d := Evaluate(book, completedPurchase(1, 3, now.Add(time.Hour)), now)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2, d.Remaining)
	})

	t.Run("quota exhausted", func(t *testing.T) {
		d := Evaluate(book, completedPurchase(3, 3, now.Add(time.Hour)), now)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonMaxDownloadsExceeded, d.Reason)
		assert.Equal(t, 0, d.Remaining)
	})

	t.Run("window expired with quota left", func(t *testing.T) {
		d := Evaluate(book, completedPurchase(0, 3, now.Add(-time.Minute)), now)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonWindowExpired, d.Reason)
		assert.Equal(t, 0, d.Remaining)
	})
}

func TestCheckRestrictions_Precedence(t *testing.T) {
	// Both conditions tripped: quota wins.
	now := time.Now()
	p := completedPurchase(3, 3, now.Add(-time.Hour))
	ok, reason := CheckRestrictions(p, now)
	assert.False(t, ok)
	assert.Equal(t, ReasonMaxDownloadsExceeded, reason)
}

func TestCheckRestrictions_WindowBoundary(t *testing.T) {
	now := time.Now()
	p := completedPurchase(0, 3, now)

	// Exactly at expiry is still allowed; only strictly after expires.
	ok, _ := CheckRestrictions(p, now)
	assert.True(t, ok)

	ok, reason := CheckRestrictions(p, now.Add(time.Nanosecond))
	assert.False(t, ok)
	assert.Equal(t, ReasonWindowExpired, reason)
}

func TestEvaluate_WindowExpiryAfter25Hours(t *testing.T) {
	purchasedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := completedPurchase(0, 3, purchasedAt.Add(24*time.Hour))
	book := &entities.Book{PriceCents: 999}

	d := Evaluate(book, p, purchasedAt.Add(25*time.Hour))
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonWindowExpired, d.Reason)
}
