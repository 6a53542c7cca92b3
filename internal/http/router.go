package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avolkau/inkshelf/internal/auth"
	"github.com/avolkau/inkshelf/internal/database/books"
	"github.com/avolkau/inkshelf/internal/database/notifications"
	"github.com/avolkau/inkshelf/internal/database/reviews"
	"github.com/avolkau/inkshelf/internal/database/stats"
	"github.com/avolkau/inkshelf/internal/database/wishlists"
	"github.com/avolkau/inkshelf/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so session context survives CSRF's
	// request replacement.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyRole, entities.UserRoleAdmin)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	booksRepo := books.NewRepository(cfg.Database.DB)
	reviewsRepo := reviews.NewRepository(cfg.Database.DB)
	wishlistsRepo := wishlists.NewRepository(cfg.Database.DB)
	notificationsRepo := notifications.NewRepository(cfg.Database.DB)
	statsRepo := stats.NewRepository(cfg.Database.DB)

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(booksRepo, reviewsRepo, cfg.DownloadService, cfg.CoverCache)
	adminBooksController := NewAdminBooksController(booksRepo, cfg.CoverCache)
	purchasesController := NewPurchasesController(cfg.PurchaseService)
	downloadsController := NewDownloadsController(cfg.DownloadService)
	reviewsController := NewReviewsController(reviewsRepo, booksRepo)
	wishlistController := NewWishlistController(wishlistsRepo, booksRepo)
	notificationsController := NewNotificationsController(notificationsRepo)
	adminController := NewAdminController(statsRepo, cfg.TaskClient)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Auth endpoints
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.RateLimiter)
		router.POST("/api/auth/login", authController.Login)
		router.POST("/api/auth/logout", authController.Logout)
		router.GET("/api/auth/status", authController.Status)
		router.POST("/api/auth/token", authController.GenerateToken)
		router.DELETE("/api/auth/token", authController.RevokeToken)
	}

	// Catalog
	router.GET("/api/books", booksController.List)
	router.GET("/api/books/:id", booksController.Get)
	router.GET("/api/books/:id/cover", booksController.Cover)
	router.GET("/api/books/:id/reviews", reviewsController.ListForBook)
	router.POST("/api/books/:id/reviews", reviewsController.Create)
	router.DELETE("/api/reviews/:id", reviewsController.Delete)

	// Purchases
	router.POST("/api/purchases/simulate", purchasesController.Simulate)
	router.GET("/api/purchases", purchasesController.List)
	router.GET("/api/purchases/:id", purchasesController.Get)
	router.PATCH("/api/purchases/:id/cancel", purchasesController.Cancel)

	// Downloads
	router.POST("/api/downloads/:bookId", downloadsController.Download)
	router.GET("/api/downloads/:bookId/check-eligibility", downloadsController.CheckEligibility)
	router.GET("/api/downloads/history", downloadsController.History)
	router.DELETE("/api/downloads/history", downloadsController.ClearHistory)

	// Wishlist
	router.GET("/api/wishlist", wishlistController.List)
	router.POST("/api/wishlist/:bookId", wishlistController.Add)
	router.DELETE("/api/wishlist/:bookId", wishlistController.Remove)

	// Notifications
	router.GET("/api/notifications", notificationsController.List)
	router.PATCH("/api/notifications/:id/read", notificationsController.MarkRead)
	router.POST("/api/notifications/read-all", notificationsController.MarkAllRead)

	// Admin surface
	adminRoutes := router.Group("/api/admin")
	if cfg.AuthMiddleware != nil {
		adminRoutes.Use(cfg.AuthMiddleware.RequireRole(entities.UserRoleAdmin))
	}
	adminRoutes.POST("/books", adminBooksController.Create)
	adminRoutes.PATCH("/books/:id", adminBooksController.Update)
	adminRoutes.DELETE("/books/:id", adminBooksController.Delete)
	adminRoutes.GET("/dashboard", adminController.Dashboard)
	adminRoutes.POST("/notifications/broadcast", adminController.Broadcast)

	return router
}
