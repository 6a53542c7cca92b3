package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkau/inkshelf/internal/assets"
	"github.com/avolkau/inkshelf/internal/covers"
	"github.com/avolkau/inkshelf/internal/database/books"
	"github.com/avolkau/inkshelf/internal/database/reviews"
	"github.com/avolkau/inkshelf/internal/entities"
	"github.com/avolkau/inkshelf/internal/services"
)

// AccessInfo tells the caller what they can do with a book.
type AccessInfo struct {
	Free               bool   `json:"free"`
	CanDownload        bool   `json:"canDownload"`
	Reason             string `json:"reason,omitempty"`
	RemainingDownloads int    `json:"remainingDownloads"`
}

type BooksController struct {
	books      *books.Repository
	reviews    *reviews.Repository
	downloads  *services.DownloadService
	coverCache *covers.Cache
}

func NewBooksController(books *books.Repository, reviews *reviews.Repository, downloads *services.DownloadService, coverCache *covers.Cache) *BooksController {
	return &BooksController{books: books, reviews: reviews, downloads: downloads, coverCache: coverCache}
}

// List returns the active catalog, filterable by type and search query.
// GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	limit, offset := parsePagination(c)

	filter := books.ListFilter{
		Type:       entities.BookType(c.Query("type")),
		Query:      c.Query("q"),
		OnlyActive: true,
		Limit:      limit,
		Offset:     offset,
	}

	list, total, err := bc.books.List(filter)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	respondPaginated(c, list, total, limit, offset)
}

// Get returns one book with the caller's access info and the average
// rating.
// GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetByID(id)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	access := AccessInfo{Free: book.Free()}
	decision, err := bc.downloads.CheckEligibility(GetUserID(c), book.ID)
	if err == nil {
		access.CanDownload = decision.Allowed
		access.Reason = string(decision.Reason)
		access.RemainingDownloads = decision.Remaining
	}

	rating, count, err := bc.reviews.AverageRating(book.ID)
	if err != nil {
		respondInternalError(c, err, "book rating")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"book":          book,
			"accessInfo":    access,
			"averageRating": rating,
			"reviewCount":   count,
		},
	})
}

// Cover serves the locally cached cover image for a book.
// GET /api/books/:id/cover
func (bc *BooksController) Cover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetByID(id)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	if bc.coverCache == nil || book.CoverURL == "" {
		respondNotFound(c, "cover")
		return
	}

	path, err := bc.coverCache.GetCover(book.ID, book.CoverURL)
	if err != nil || path == "" {
		respondNotFound(c, "cover")
		return
	}

	c.File(path)
}

// AdminBooksController manages the catalog. Asset references are
// validated and canonical URLs derived at write time.
type AdminBooksController struct {
	books      *books.Repository
	coverCache *covers.Cache
}

func NewAdminBooksController(books *books.Repository, coverCache *covers.Cache) *AdminBooksController {
	return &AdminBooksController{books: books, coverCache: coverCache}
}

type bookRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	Description string `json:"description"`
	PriceCents  *int64 `json:"price_cents" binding:"required"`
	Type        string `json:"type"`
	CoverURL    string `json:"cover_url"`
	AssetRef    string `json:"asset_ref"`
	Active      *bool  `json:"active"`
}

// Create adds a book to the catalog.
// POST /api/admin/books
func (ac *AdminBooksController) Create(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title, author and price_cents are required")
		return
	}

	if *req.PriceCents < 0 {
		respondBadRequest(c, "price_cents must not be negative")
		return
	}

	bookType := entities.BookType(req.Type)
	if bookType == "" {
		bookType = entities.BookTypeEbook
	}
	if bookType != entities.BookTypeEbook && bookType != entities.BookTypeAudiobook {
		respondBadRequest(c, "type must be ebook or audiobook")
		return
	}

	book := &entities.Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		PriceCents:  *req.PriceCents,
		Type:        bookType,
		CoverURL:    req.CoverURL,
		Active:      true,
	}
	if req.Active != nil {
		book.Active = *req.Active
	}

	if req.AssetRef != "" {
		if !ac.applyAssetRef(c, book, req.AssetRef) {
			return
		}
	}

	if err := ac.books.Create(book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	respondCreated(c, book)
}

// Update modifies a book. Only fields present in the request change.
// PATCH /api/admin/books/:id
func (ac *AdminBooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := ac.books.GetByID(id)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Author      *string `json:"author"`
		Description *string `json:"description"`
		PriceCents  *int64  `json:"price_cents"`
		Type        *string `json:"type"`
		CoverURL    *string `json:"cover_url"`
		AssetRef    *string `json:"asset_ref"`
		Active      *bool   `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			respondBadRequest(c, "price_cents must not be negative")
			return
		}
		book.PriceCents = *req.PriceCents
	}
	if req.Type != nil {
		bookType := entities.BookType(*req.Type)
		if bookType != entities.BookTypeEbook && bookType != entities.BookTypeAudiobook {
			respondBadRequest(c, "type must be ebook or audiobook")
			return
		}
		book.Type = bookType
	}
	if req.CoverURL != nil && *req.CoverURL != book.CoverURL {
		book.CoverURL = *req.CoverURL
		if ac.coverCache != nil {
			if err := ac.coverCache.InvalidateCover(book.ID); err != nil {
				log.Printf("Failed to invalidate cover for book %d: %v", book.ID, err)
			}
		}
	}
	if req.Active != nil {
		book.Active = *req.Active
	}
	if req.AssetRef != nil {
		if !ac.applyAssetRef(c, book, *req.AssetRef) {
			return
		}
	}

	if err := ac.books.Update(book); err != nil {
		respondInternalError(c, err, "update book")
		return
	}

	respondData(c, book)
}

// Delete soft-deletes a book. Existing purchases keep their snapshot.
// DELETE /api/admin/books/:id
func (ac *AdminBooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := ac.books.GetByID(id); err != nil {
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	if err := ac.books.Delete(id); err != nil {
		respondInternalError(c, err, "delete book")
		return
	}

	respondMessage(c, "book deleted")
}

// applyAssetRef validates the reference and derives the canonical
// download and preview URLs onto the book.
func (ac *AdminBooksController) applyAssetRef(c *gin.Context, book *entities.Book, ref string) bool {
	fileID, ok := assets.ExtractFileID(ref)
	if !ok {
		respondBadRequest(c, "asset_ref is not a recognized file reference")
		return false
	}

	book.AssetRef = ref
	book.DownloadURL = assets.DownloadURL(fileID)
	book.PreviewURL = assets.PreviewURL(fileID)
	return true
}
