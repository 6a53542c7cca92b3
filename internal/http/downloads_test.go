package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkau/inkshelf/internal/auth"
	"github.com/avolkau/inkshelf/internal/config"
	"github.com/avolkau/inkshelf/internal/database"
	dbbooks "github.com/avolkau/inkshelf/internal/database/books"
	"github.com/avolkau/inkshelf/internal/entities"
	"github.com/avolkau/inkshelf/internal/services"
)

const testAssetRef = "1a2B3c4D5e6F7g8H9i0JkLmNoPqRsTuVw"

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// authAs injects an authenticated user, standing in for the auth
// middleware.
func authAs(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, userID)
		c.Next()
	}
}

func testDownloadsConfig() config.Downloads {
	return config.Downloads{MaxDownloads: 3, WindowHours: 24}
}

func seedBook(t *testing.T, db *database.Database, priceCents int64) *entities.Book {
	t.Helper()
	book := &entities.Book{
		Title:      "Roadside Picnic",
		Author:     "Arkady and Boris Strugatsky",
		PriceCents: priceCents,
		Type:       entities.BookTypeEbook,
		AssetRef:   testAssetRef,
		Active:     true,
	}
	require.NoError(t, dbbooks.NewRepository(db.DB).Create(book))
	return book
}

func downloadsRouter(db *database.Database, userID uint) (*gin.Engine, *services.DownloadService) {
	svc := services.NewDownloadService(db)
	controller := NewDownloadsController(svc)

	router := gin.New()
	router.Use(authAs(userID))
	router.POST("/api/downloads/:bookId", controller.Download)
	router.GET("/api/downloads/:bookId/check-eligibility", controller.CheckEligibility)
	router.GET("/api/downloads/history", controller.History)
	router.DELETE("/api/downloads/history", controller.ClearHistory)
	return router, svc
}

func TestDownloadsController_Download(t *testing.T) {
	t.Run("free book is granted without purchase", func(t *testing.T) {
		db := setupTestDB(t)
		book := seedBook(t, db, 0)
		router, _ := downloadsRouter(db, 1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/downloads/"+itoa(book.ID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				DownloadURL        string `json:"downloadUrl"`
				DownloadType       string `json:"downloadType"`
				RemainingDownloads int    `json:"remainingDownloads"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "free", resp.Data.DownloadType)
		assert.Contains(t, resp.Data.DownloadURL, "export=download")
		assert.Equal(t, -1, resp.Data.RemainingDownloads)
	})

	t.Run("paid book without purchase is denied with reason", func(t *testing.T) {
		db := setupTestDB(t)
		book := seedBook(t, db, 999)
		router, _ := downloadsRouter(db, 1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/downloads/"+itoa(book.ID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "purchase_required", resp.Reason)
	})

	t.Run("quota exhaustion returns max_downloads_exceeded", func(t *testing.T) {
		db := setupTestDB(t)
		book := seedBook(t, db, 999)

		purchaseSvc := services.NewPurchaseService(db, testDownloadsConfig())
		_, err := purchaseSvc.CreatePurchase(1, book.ID, "card")
		require.NoError(t, err)

		router, _ := downloadsRouter(db, 1)

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/downloads/"+itoa(book.ID), nil)
			router.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/downloads/"+itoa(book.ID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "max_downloads_exceeded", resp.Reason)
	})

	t.Run("missing book", func(t *testing.T) {
		db := setupTestDB(t)
		router, _ := downloadsRouter(db, 1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/downloads/4040", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDownloadsController_CheckEligibility(t *testing.T) {
	db := setupTestDB(t)
	book := seedBook(t, db, 999)
	router, _ := downloadsRouter(db, 1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/downloads/"+itoa(book.ID)+"/check-eligibility", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Allowed)
	assert.Equal(t, "purchase_required", resp.Reason)

	// Probing must not write the ledger
	var count int64
	require.NoError(t, db.DB.Model(&entities.DownloadRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDownloadsController_History(t *testing.T) {
	db := setupTestDB(t)
	book := seedBook(t, db, 0)
	router, _ := downloadsRouter(db, 1)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/downloads/"+itoa(book.ID), nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	t.Run("paginated history", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/downloads/history?limit=2", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp PaginatedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(3), resp.Total)
		assert.True(t, resp.HasMore)
	})

	t.Run("clear history", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/downloads/history", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Deleted int64 `json:"deleted"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(3), resp.Deleted)
	})
}
