// Package entitlement decides whether a user may download a book right
// now. Decisions are pure functions over catalog and purchase values so
// the logic stays separable from storage and trivially testable;
// actually granting a download (counters, ledger) lives in the services
// layer.
package entitlement

import (
	"time"

	"github.com/avolkau/inkshelf/internal/entities"
)

// Reason is the machine-readable cause of a denied download, used by
// clients to render the right call-to-action (buy button vs. "come
// back later").
type Reason string

const (
	ReasonPurchaseRequired     Reason = "purchase_required"
	ReasonMaxDownloadsExceeded Reason = "max_downloads_exceeded"
	ReasonWindowExpired        Reason = "window_expired"
)

// RemainingUnlimited marks a decision with no download metering. Free
// books are never metered.
const RemainingUnlimited = -1

// Decision is the outcome of an entitlement evaluation.
type Decision struct {
	Allowed   bool
	Reason    Reason
	Remaining int // remaining downloads; RemainingUnlimited for free books
}

// Unlimited reports whether the decision carries no download cap.
func (d Decision) Unlimited() bool {
	return d.Remaining == RemainingUnlimited
}

// CheckRestrictions applies the per-purchase download restrictions.
// Quota is checked before window expiry; when both have tripped the
// quota reason wins.
func CheckRestrictions(p *entities.Purchase, now time.Time) (bool, Reason) {
	if p.DownloadsUsed >= p.MaxDownloads {
		return false, ReasonMaxDownloadsExceeded
	}
	if now.After(p.DownloadExpiry) {
		return false, ReasonWindowExpired
	}
	return true, ""
}

// Evaluate decides whether a download of book is currently permitted.
// purchase is the user's purchase record for the book, or nil when none
// exists; only a completed purchase confers entitlement. The evaluation
// has no side effects.
func Evaluate(book *entities.Book, purchase *entities.Purchase, now time.Time) Decision {
	if book.Free() {
		return Decision{Allowed: true, Remaining: RemainingUnlimited}
	}

	if purchase == nil || purchase.Status != entities.PurchaseStatusCompleted {
		return Decision{Allowed: false, Reason: ReasonPurchaseRequired}
	}

	if ok, reason := CheckRestrictions(purchase, now); !ok {
		return Decision{Allowed: false, Reason: reason, Remaining: 0}
	}

	return Decision{Allowed: true, Remaining: purchase.MaxDownloads - purchase.DownloadsUsed}
}
