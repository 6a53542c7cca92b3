package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkau/inkshelf/internal/database/notifications"
)

type NotificationsController struct {
	notifications *notifications.Repository
}

func NewNotificationsController(notifications *notifications.Repository) *NotificationsController {
	return &NotificationsController{notifications: notifications}
}

// List returns the caller's notifications, newest first, plus the
// unread count.
// GET /api/notifications
func (nc *NotificationsController) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	userID := GetUserID(c)

	list, total, err := nc.notifications.GetForUser(userID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list notifications")
		return
	}

	unread, err := nc.notifications.CountUnread(userID)
	if err != nil {
		respondInternalError(c, err, "count unread notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    list,
		"total":   total,
		"unread":  unread,
	})
}

// MarkRead flags one notification as read.
// PATCH /api/notifications/:id/read
func (nc *NotificationsController) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := nc.notifications.MarkRead(id, GetUserID(c)); err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			respondNotFound(c, "notification")
			return
		}
		respondInternalError(c, err, "mark notification read")
		return
	}

	respondMessage(c, "notification marked read")
}

// MarkAllRead flags every unread notification as read.
// POST /api/notifications/read-all
func (nc *NotificationsController) MarkAllRead(c *gin.Context) {
	updated, err := nc.notifications.MarkAllRead(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "mark all notifications read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": updated})
}
