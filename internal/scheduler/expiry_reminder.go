package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avolkau/inkshelf/internal/config"
	"github.com/avolkau/inkshelf/internal/database"
	"github.com/avolkau/inkshelf/internal/database/notifications"
	"github.com/avolkau/inkshelf/internal/database/purchases"
	"github.com/avolkau/inkshelf/internal/entities"
)

// ExpiryReminderScheduler periodically notifies users whose download
// window is about to close. Each purchase is reminded at most once.
type ExpiryReminderScheduler struct {
	purchases     *purchases.Repository
	notifications *notifications.Repository
	config        config.Scheduler

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
	now        func() time.Time
}

func NewExpiryReminderScheduler(db *database.Database, cfg config.Scheduler) *ExpiryReminderScheduler {
	return &ExpiryReminderScheduler{
		purchases:     purchases.NewRepository(db.DB),
		notifications: notifications.NewRepository(db.DB),
		config:        cfg,
		cron:          cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		now:           time.Now,
	}
}

// SetClock overrides the scheduler clock. Test hook.
func (s *ExpiryReminderScheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start begins the scheduler if reminders are enabled.
func (s *ExpiryReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.ExpiryReminderEnabled {
		log.Printf("Expiry reminder scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runReminders()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule expiry reminders: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Expiry reminder scheduler: started with schedule '%s'", s.config.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *ExpiryReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Expiry reminder scheduler: stopped")
}

// RunNow triggers an immediate reminder pass.
func (s *ExpiryReminderScheduler) RunNow() {
	go s.runReminders()
}

// IsRunning returns whether the scheduler is active.
func (s *ExpiryReminderScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next reminder pass will occur.
func (s *ExpiryReminderScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runReminders notifies owners of purchases whose window closes within
// the configured look-ahead.
func (s *ExpiryReminderScheduler) runReminders() {
	now := s.now()
	window := s.config.ExpiryReminderWindow
	if window <= 0 {
		window = 2 * time.Hour
	}

	expiring, err := s.purchases.ExpiringBetween(now, now.Add(window))
	if err != nil {
		log.Printf("Expiry reminders: failed to list expiring purchases: %v", err)
		return
	}

	if len(expiring) == 0 {
		return
	}

	var sent int
	for _, purchase := range expiring {
		remaining := purchase.MaxDownloads - purchase.DownloadsUsed
		if remaining <= 0 {
			// Quota already spent, nothing to remind about. Mark it so
			// the next pass skips the row.
			_ = s.purchases.MarkExpiryNotified(purchase.ID)
			continue
		}

		err := s.notifications.Create(&entities.Notification{
			UserID: purchase.UserID,
			Kind:   entities.NotificationKindWindowExpiry,
			Title:  "Download window closing soon",
			Body: fmt.Sprintf("Your download window for %q closes at %s. You have %d download(s) left.",
				purchase.BookTitle, purchase.DownloadExpiry.Format(time.RFC1123), remaining),
		})
		if err != nil {
			log.Printf("Expiry reminders: failed to notify user %d for purchase %d: %v",
				purchase.UserID, purchase.ID, err)
			continue
		}

		if err := s.purchases.MarkExpiryNotified(purchase.ID); err != nil {
			log.Printf("Expiry reminders: failed to mark purchase %d notified: %v", purchase.ID, err)
			continue
		}
		sent++
	}

	log.Printf("Expiry reminders: sent %d reminder(s) for %d expiring purchase(s)", sent, len(expiring))
}
