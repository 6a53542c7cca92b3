package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DownloadHistoryCleaner deletes download records older than a cutoff.
type DownloadHistoryCleaner interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// CleanupDownloadHistoryTask prunes the download ledger past the
// configured retention period.
type CleanupDownloadHistoryTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupDownloadHistoryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_download_history",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupDownloadHistoryProcessor creates a processor for ledger cleanup.
func CleanupDownloadHistoryProcessor(cleaner DownloadHistoryCleaner) backlite.QueueProcessor[CleanupDownloadHistoryTask] {
	return func(ctx context.Context, task CleanupDownloadHistoryTask) error {
		if cleaner == nil {
			return fmt.Errorf("download history cleaner not configured")
		}

		// Retention 0 means keep forever; such tasks are never enqueued,
		// but guard anyway.
		if task.RetentionDays <= 0 {
			return nil
		}

		cutoff := time.Now().Add(-time.Duration(task.RetentionDays) * 24 * time.Hour)
		deleted, err := cleaner.DeleteOlderThan(cutoff)
		if err != nil {
			return fmt.Errorf("cleanup download history: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d download records older than %d days", deleted, task.RetentionDays)
		return nil
	}
}

// NewCleanupDownloadHistoryQueue creates the backlite queue for ledger cleanup.
func NewCleanupDownloadHistoryQueue(cleaner DownloadHistoryCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupDownloadHistoryProcessor(cleaner))
}
