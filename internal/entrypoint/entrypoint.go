package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkau/inkshelf/internal/auth"
	"github.com/avolkau/inkshelf/internal/config"
	"github.com/avolkau/inkshelf/internal/covers"
	"github.com/avolkau/inkshelf/internal/database"
	"github.com/avolkau/inkshelf/internal/database/downloads"
	"github.com/avolkau/inkshelf/internal/database/notifications"
	"github.com/avolkau/inkshelf/internal/database/users"
	http_controllers "github.com/avolkau/inkshelf/internal/http"
	"github.com/avolkau/inkshelf/internal/scheduler"
	"github.com/avolkau/inkshelf/internal/services"
	"github.com/avolkau/inkshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background workers before cutting off in-flight requests.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Inkshelf v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	purchaseService := services.NewPurchaseService(db, cfg.Downloads)
	downloadService := services.NewDownloadService(db)

	// Cover images are cached next to the database file
	coverCacheDir := filepath.Join(filepath.Dir(cfg.Database.Path), "covers")
	coverCache, err := covers.NewCache(coverCacheDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
	} else {
		log.Printf("Cover cache initialized at %s", coverCacheDir)
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewBroadcastNotificationQueue(
				users.NewRepository(db.DB),
				notifications.NewRepository(db.DB),
			),
			tasks.NewCleanupDownloadHistoryQueue(downloads.NewRepository(db.DB)),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Start the schedulers if enabled
	var reminderScheduler *scheduler.ExpiryReminderScheduler
	var cleanupScheduler *scheduler.HistoryCleanupScheduler
	var schedulerCancel context.CancelFunc
	if cfg.Scheduler.Enabled {
		reminderScheduler = scheduler.NewExpiryReminderScheduler(db, cfg.Scheduler)

		var schedulerCtx context.Context
		schedulerCtx, schedulerCancel = context.WithCancel(context.Background())
		if err := reminderScheduler.Start(schedulerCtx); err != nil {
			log.Fatalf("Failed to start expiry reminder scheduler: %v", err)
		}

		if taskClient != nil {
			cleanupScheduler = scheduler.NewHistoryCleanupScheduler(
				taskClient, cfg.Downloads.RetentionDays, cfg.Scheduler.CleanupSchedule)
			if err := cleanupScheduler.Start(); err != nil {
				log.Fatalf("Failed to start history cleanup scheduler: %v", err)
			}
		}
	}

	// Initialize authentication if enabled
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var rateLimiter *auth.RateLimiter
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(db.DB, cfg.Auth)

		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		rateLimiter = auth.NewRateLimiter(auth.RateLimitConfig{
			MaxAttempts:     cfg.Auth.MaxLoginAttempts,
			WindowDuration:  cfg.Auth.RateLimitWindow,
			LockoutDuration: cfg.Auth.LockoutDuration,
		})
		defer rateLimiter.Stop()

		// Generate or use configured CSRF secret
		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		hasUsers, _ := authService.HasUsers()
		if !hasUsers {
			log.Printf("No users found. Run 'create-admin' to create an administrator account.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:        db,
		PurchaseService: purchaseService,
		DownloadService: downloadService,
		AuthService:     authService,
		AuthMiddleware:  authMiddleware,
		SessionManager:  sessionManager,
		RateLimiter:     rateLimiter,
		AuthConfig:      cfg.Auth,
		CSRFSecret:      csrfSecret,
		SecureCookies:   cfg.Auth.SecureCookies,
		TaskClient:      taskClient,
		CoverCache:      coverCache,
		Version:         version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if reminderScheduler != nil {
			reminderScheduler.Stop()
			schedulerCancel()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
