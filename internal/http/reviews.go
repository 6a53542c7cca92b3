package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkau/inkshelf/internal/database/books"
	"github.com/avolkau/inkshelf/internal/database/reviews"
	"github.com/avolkau/inkshelf/internal/entities"
)

type ReviewsController struct {
	reviews *reviews.Repository
	books   *books.Repository
}

func NewReviewsController(reviews *reviews.Repository, books *books.Repository) *ReviewsController {
	return &ReviewsController{reviews: reviews, books: books}
}

// ListForBook returns a book's reviews, newest first, with the mean
// rating.
// GET /api/books/:id/reviews
func (rc *ReviewsController) ListForBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	limit, offset := parsePagination(c)
	list, total, err := rc.reviews.GetForBook(bookID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list reviews")
		return
	}

	rating, count, err := rc.reviews.AverageRating(bookID)
	if err != nil {
		respondInternalError(c, err, "average rating")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"data":          list,
		"total":         total,
		"averageRating": rating,
		"reviewCount":   count,
	})
}

// Create posts a review. One review per user per book.
// POST /api/books/:id/reviews
func (rc *ReviewsController) Create(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "rating is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondBadRequest(c, "rating must be between 1 and 5")
		return
	}

	if _, err := rc.books.GetByID(bookID); err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	review := &entities.Review{
		UserID:  GetUserID(c),
		BookID:  bookID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}

	if err := rc.reviews.Create(review); err != nil {
		if errors.Is(err, reviews.ErrAlreadyExists) {
			respondError(c, http.StatusBadRequest, "you have already reviewed this book")
			return
		}
		respondInternalError(c, err, "create review")
		return
	}

	respondCreated(c, review)
}

// Delete removes the caller's own review.
// DELETE /api/reviews/:id
func (rc *ReviewsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.reviews.Delete(id, GetUserID(c)); err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			respondNotFound(c, "review")
			return
		}
		respondInternalError(c, err, "delete review")
		return
	}

	respondMessage(c, "review deleted")
}
