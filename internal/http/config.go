package http

import (
	"github.com/avolkau/inkshelf/internal/auth"
	"github.com/avolkau/inkshelf/internal/config"
	"github.com/avolkau/inkshelf/internal/covers"
	"github.com/avolkau/inkshelf/internal/database"
	"github.com/avolkau/inkshelf/internal/services"
	"github.com/avolkau/inkshelf/internal/tasks"
)

// RouterConfig carries everything NewRouter needs, replacing a long
// parameter list.
type RouterConfig struct {
	Database *database.Database

	// Domain services
	PurchaseService *services.PurchaseService
	DownloadService *services.DownloadService

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	RateLimiter    *auth.RateLimiter
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Local cover image cache (optional)
	CoverCache *covers.Cache

	// Application info
	Version string
}
