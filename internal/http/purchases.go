package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkau/inkshelf/internal/services"
)

type PurchasesController struct {
	purchases *services.PurchaseService
}

func NewPurchasesController(purchases *services.PurchaseService) *PurchasesController {
	return &PurchasesController{purchases: purchases}
}

// Simulate buys a book with the simulated payment provider. The
// response carries the purchase and where to fetch the file.
// POST /api/purchases/simulate
func (pc *PurchasesController) Simulate(c *gin.Context) {
	var req struct {
		BookID        uint   `json:"book_id" binding:"required"`
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "simulated"
	}

	purchase, err := pc.purchases.CreatePurchase(GetUserID(c), req.BookID, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, services.ErrNotPurchasable):
			respondError(c, http.StatusBadRequest, "free books do not require a purchase")
		case errors.Is(err, services.ErrAlreadyPurchased):
			c.JSON(http.StatusBadRequest, gin.H{
				"success":  false,
				"message":  "book already purchased",
				"reason":   "already_purchased",
				"purchase": purchase,
			})
		default:
			respondInternalError(c, err, "create purchase")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"purchase": purchase,
		"downloadInfo": gin.H{
			"downloadEndpoint":   fmt.Sprintf("/api/downloads/%d", purchase.BookID),
			"remainingDownloads": purchase.MaxDownloads - purchase.DownloadsUsed,
			"expiresAt":          purchase.DownloadExpiry,
		},
	})
}

// List returns the caller's purchase history, newest first.
// GET /api/purchases
func (pc *PurchasesController) List(c *gin.Context) {
	limit, offset := parsePagination(c)

	purchases, total, err := pc.purchases.ListPurchases(GetUserID(c), limit, offset)
	if err != nil {
		respondInternalError(c, err, "list purchases")
		return
	}

	respondPaginated(c, purchases, total, limit, offset)
}

// Get returns one of the caller's purchases.
// GET /api/purchases/:id
func (pc *PurchasesController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	purchase, err := pc.purchases.GetPurchase(id, GetUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrPurchaseNotFound) {
			respondNotFound(c, "purchase")
			return
		}
		respondInternalError(c, err, "get purchase")
		return
	}

	respondData(c, purchase)
}

// Cancel moves a completed purchase to cancelled.
// PATCH /api/purchases/:id/cancel
func (pc *PurchasesController) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	purchase, err := pc.purchases.CancelPurchase(id, GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPurchaseNotFound):
			respondNotFound(c, "purchase")
		case errors.Is(err, services.ErrInvalidStateTransition):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "only completed purchases can be cancelled",
				Reason:  "invalid_state_transition",
			})
		default:
			respondInternalError(c, err, "cancel purchase")
		}
		return
	}

	respondData(c, purchase)
}
