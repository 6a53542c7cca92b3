package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkau/inkshelf/internal/database/stats"
	"github.com/avolkau/inkshelf/internal/tasks"
)

// AdminController serves the dashboard aggregates and the broadcast
// endpoint. Broadcast fan-out runs on the task queue.
type AdminController struct {
	stats      *stats.Repository
	taskClient *tasks.Client
}

func NewAdminController(stats *stats.Repository, taskClient *tasks.Client) *AdminController {
	return &AdminController{stats: stats, taskClient: taskClient}
}

// Dashboard returns store-wide aggregates.
// GET /api/admin/dashboard
func (ac *AdminController) Dashboard(c *gin.Context) {
	revenue, err := ac.stats.Revenue()
	if err != nil {
		respondInternalError(c, err, "dashboard revenue")
		return
	}
	purchases, err := ac.stats.CompletedPurchases()
	if err != nil {
		respondInternalError(c, err, "dashboard purchases")
		return
	}
	downloads, err := ac.stats.TotalDownloads()
	if err != nil {
		respondInternalError(c, err, "dashboard downloads")
		return
	}
	downloads24h, err := ac.stats.DownloadsSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		respondInternalError(c, err, "dashboard recent downloads")
		return
	}
	books, err := ac.stats.TotalBooks()
	if err != nil {
		respondInternalError(c, err, "dashboard books")
		return
	}
	users, err := ac.stats.TotalUsers()
	if err != nil {
		respondInternalError(c, err, "dashboard users")
		return
	}
	topBooks, err := ac.stats.TopBooks(10)
	if err != nil {
		respondInternalError(c, err, "dashboard top books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"revenue_cents":       revenue,
			"completed_purchases": purchases,
			"total_downloads":     downloads,
			"downloads_24h":       downloads24h,
			"total_books":         books,
			"total_users":         users,
			"top_books":           topBooks,
		},
	})
}

// Broadcast enqueues a notification fan-out to all users.
// POST /api/admin/notifications/broadcast
func (ac *AdminController) Broadcast(c *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and message are required")
		return
	}

	if ac.taskClient == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is not enabled")
		return
	}

	task := tasks.BroadcastNotificationTask{Title: req.Title, Message: req.Message}
	ids, err := ac.taskClient.Add(task).Save()
	if err != nil {
		respondInternalError(c, err, "enqueue broadcast")
		return
	}
	log.Printf("Enqueued broadcast notification task %s", ids[0])

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "broadcast queued",
		"task_id": ids[0],
	})
}
