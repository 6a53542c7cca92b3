package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/avolkau/inkshelf/internal/database/books"
	"github.com/avolkau/inkshelf/internal/database/wishlists"
)

type WishlistController struct {
	wishlists *wishlists.Repository
	books     *books.Repository
}

func NewWishlistController(wishlists *wishlists.Repository, books *books.Repository) *WishlistController {
	return &WishlistController{wishlists: wishlists, books: books}
}

// List returns the caller's wishlist, newest first.
// GET /api/wishlist
func (wc *WishlistController) List(c *gin.Context) {
	items, err := wc.wishlists.GetForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list wishlist")
		return
	}

	respondData(c, items)
}

// Add puts a book on the caller's wishlist. Adding twice is a no-op.
// POST /api/wishlist/:bookId
func (wc *WishlistController) Add(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	if _, err := wc.books.GetByID(bookID); err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	item, err := wc.wishlists.Add(GetUserID(c), bookID)
	if err != nil {
		respondInternalError(c, err, "add to wishlist")
		return
	}

	respondCreated(c, item)
}

// Remove takes a book off the caller's wishlist.
// DELETE /api/wishlist/:bookId
func (wc *WishlistController) Remove(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	if err := wc.wishlists.Remove(GetUserID(c), bookID); err != nil {
		if errors.Is(err, wishlists.ErrNotFound) {
			respondNotFound(c, "wishlist item")
			return
		}
		respondInternalError(c, err, "remove from wishlist")
		return
	}

	respondMessage(c, "removed from wishlist")
}
