package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/avolkau/inkshelf/internal/entities"
)

// UserLister provides the IDs of all users for fan-out.
type UserLister interface {
	ListIDs() ([]uint, error)
}

// NotificationCreator persists notifications.
type NotificationCreator interface {
	Create(n *entities.Notification) error
}

// BroadcastNotificationTask fans one announcement out to every user.
// The fan-out runs off the request path because a large user table
// would otherwise stall the admin endpoint.
type BroadcastNotificationTask struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (t BroadcastNotificationTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "broadcast_notification",
		MaxAttempts: 3,
		Backoff:     1 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// BroadcastNotificationProcessor creates a processor for broadcast tasks.
func BroadcastNotificationProcessor(users UserLister, notifications NotificationCreator) backlite.QueueProcessor[BroadcastNotificationTask] {
	return func(ctx context.Context, task BroadcastNotificationTask) error {
		if users == nil || notifications == nil {
			return fmt.Errorf("broadcast dependencies not configured")
		}

		ids, err := users.ListIDs()
		if err != nil {
			return fmt.Errorf("list users for broadcast: %w", err)
		}

		var created int
		for _, id := range ids {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err := notifications.Create(&entities.Notification{
				UserID: id,
				Kind:   entities.NotificationKindBroadcast,
				Title:  task.Title,
				Body:   task.Message,
			})
			if err != nil {
				return fmt.Errorf("create broadcast notification for user %d: %w", id, err)
			}
			created++
		}

		log.Printf("[TASK] Broadcast %q delivered to %d users", task.Title, created)
		return nil
	}
}

// NewBroadcastNotificationQueue creates the backlite queue for broadcasts.
func NewBroadcastNotificationQueue(users UserLister, notifications NotificationCreator) backlite.Queue {
	return backlite.NewQueue(BroadcastNotificationProcessor(users, notifications))
}
