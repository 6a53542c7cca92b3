package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkau/inkshelf/internal/assets"
	"github.com/avolkau/inkshelf/internal/entitlement"
	"github.com/avolkau/inkshelf/internal/services"
)

// DownloadsController fronts the entitlement gatekeeper: every file
// URL handed out goes through GrantDownload.
type DownloadsController struct {
	downloads *services.DownloadService
}

func NewDownloadsController(downloads *services.DownloadService) *DownloadsController {
	return &DownloadsController{downloads: downloads}
}

// Download grants an entitled download and returns the file URL.
// POST /api/downloads/:bookId
func (dc *DownloadsController) Download(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	client := services.ClientContext{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}

	record, decision, err := dc.downloads.GrantDownload(GetUserID(c), bookID, client)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, services.ErrDownloadDenied):
			respondDenied(c, deniedMessage(decision.Reason), string(decision.Reason))
		case errors.Is(err, assets.ErrAssetUnavailable):
			respondInternalError(c, err, "resolve asset")
		default:
			respondInternalError(c, err, "grant download")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"downloadUrl":        record.DownloadURL,
			"downloadType":       record.Type,
			"remainingDownloads": decision.Remaining,
		},
	})
}

// CheckEligibility answers whether a download would be granted,
// without consuming quota.
// GET /api/downloads/:bookId/check-eligibility
func (dc *DownloadsController) CheckEligibility(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	decision, err := dc.downloads.CheckEligibility(GetUserID(c), bookID)
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "check eligibility")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"allowed":   decision.Allowed,
		"reason":    decision.Reason,
		"remaining": decision.Remaining,
		"unlimited": decision.Unlimited(),
	})
}

// History returns the caller's download ledger, newest first.
// GET /api/downloads/history
func (dc *DownloadsController) History(c *gin.Context) {
	limit, offset := parsePagination(c)

	records, total, err := dc.downloads.History(GetUserID(c), limit, offset)
	if err != nil {
		respondInternalError(c, err, "download history")
		return
	}

	respondPaginated(c, records, total, limit, offset)
}

// ClearHistory bulk-deletes the caller's ledger entries.
// DELETE /api/downloads/history
func (dc *DownloadsController) ClearHistory(c *gin.Context) {
	deleted, err := dc.downloads.ClearHistory(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "clear download history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}

func deniedMessage(reason entitlement.Reason) string {
	switch reason {
	case entitlement.ReasonPurchaseRequired:
		return "purchase required to download this book"
	case entitlement.ReasonMaxDownloadsExceeded:
		return "maximum downloads reached for this purchase"
	case entitlement.ReasonWindowExpired:
		return "download window has expired; re-purchase to download again"
	default:
		return "download not permitted"
	}
}
