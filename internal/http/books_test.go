package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkau/inkshelf/internal/covers"
	"github.com/avolkau/inkshelf/internal/database"
	dbbooks "github.com/avolkau/inkshelf/internal/database/books"
	"github.com/avolkau/inkshelf/internal/database/reviews"
	"github.com/avolkau/inkshelf/internal/entities"
	"github.com/avolkau/inkshelf/internal/services"
)

func booksRouter(t *testing.T, db *database.Database, userID uint) *gin.Engine {
	t.Helper()

	booksRepo := dbbooks.NewRepository(db.DB)
	reviewsRepo := reviews.NewRepository(db.DB)
	coverCache, err := covers.NewCache(t.TempDir())
	require.NoError(t, err)
	controller := NewBooksController(booksRepo, reviewsRepo, services.NewDownloadService(db), coverCache)
	admin := NewAdminBooksController(booksRepo, coverCache)

	router := gin.New()
	router.Use(authAs(userID))
	router.GET("/api/books", controller.List)
	router.GET("/api/books/:id", controller.Get)
	router.GET("/api/books/:id/cover", controller.Cover)
	router.POST("/api/admin/books", admin.Create)
	router.PATCH("/api/admin/books/:id", admin.Update)
	router.DELETE("/api/admin/books/:id", admin.Delete)
	return router
}

func TestBooksController_List(t *testing.T) {
	db := setupTestDB(t)
	router := booksRouter(t, db, 1)

	seedBook(t, db, 0)
	seedBook(t, db, 999)
	inactive := seedBook(t, db, 500)
	inactive.Active = false
	require.NoError(t, dbbooks.NewRepository(db.DB).Update(inactive))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Total)
}

func TestBooksController_Get(t *testing.T) {
	t.Run("free book is downloadable for anyone", func(t *testing.T) {
		db := setupTestDB(t)
		router := booksRouter(t, db, 1)
		book := seedBook(t, db, 0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/"+itoa(book.ID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data struct {
				AccessInfo AccessInfo `json:"accessInfo"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.AccessInfo.Free)
		assert.True(t, resp.Data.AccessInfo.CanDownload)
	})

	t.Run("paid book requires purchase", func(t *testing.T) {
		db := setupTestDB(t)
		router := booksRouter(t, db, 1)
		book := seedBook(t, db, 999)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/"+itoa(book.ID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data struct {
				AccessInfo AccessInfo `json:"accessInfo"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Data.AccessInfo.CanDownload)
		assert.Equal(t, "purchase_required", resp.Data.AccessInfo.Reason)
	})

	t.Run("missing book", func(t *testing.T) {
		db := setupTestDB(t)
		router := booksRouter(t, db, 1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/books/4040", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminBooksController_Create(t *testing.T) {
	t.Run("derives asset URLs at write time", func(t *testing.T) {
		db := setupTestDB(t)
		router := booksRouter(t, db, 1)

		body := bytes.NewBufferString(fmt.Sprintf(
			`{"title": "Hard to Be a God", "author": "Strugatsky", "price_cents": 1299, "asset_ref": %q}`,
			"https://drive.google.com/file/d/"+testAssetRef+"/view"))
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/admin/books", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data entities.Book `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		stored, err := dbbooks.NewRepository(db.DB).GetByID(resp.Data.ID)
		require.NoError(t, err)
		assert.Contains(t, stored.DownloadURL, "uc?export=download&id="+testAssetRef)
		assert.Contains(t, stored.PreviewURL, "/file/d/"+testAssetRef+"/preview")
	})

	t.Run("rejects unrecognized asset refs", func(t *testing.T) {
		db := setupTestDB(t)
		router := booksRouter(t, db, 1)

		body := bytes.NewBufferString(
			`{"title": "Broken", "author": "Anon", "price_cents": 100, "asset_ref": "not a file ref"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/admin/books", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		db := setupTestDB(t)
		router := booksRouter(t, db, 1)

		body := bytes.NewBufferString(`{"title": "Oops", "author": "Anon", "price_cents": -5}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/admin/books", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminBooksController_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	router := booksRouter(t, db, 1)
	book := seedBook(t, db, 999)

	t.Run("partial update", func(t *testing.T) {
		body := bytes.NewBufferString(`{"price_cents": 0}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PATCH", "/api/admin/books/"+itoa(book.ID), body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		stored, err := dbbooks.NewRepository(db.DB).GetByID(book.ID)
		require.NoError(t, err)
		assert.True(t, stored.Free())
		assert.Equal(t, "Roadside Picnic", stored.Title)
	})

	t.Run("delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/admin/books/"+itoa(book.ID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		_, err := dbbooks.NewRepository(db.DB).GetByID(book.ID)
		assert.ErrorIs(t, err, dbbooks.ErrNotFound)
	})
}
