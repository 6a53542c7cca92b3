package scheduler

import (
	"fmt"
	"log"
	"sync"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/avolkau/inkshelf/internal/tasks"
)

// TaskEnqueuer is the slice of the task client the cleanup scheduler
// needs.
type TaskEnqueuer interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// HistoryCleanupScheduler periodically enqueues the download-history
// retention task. The deletion itself runs on the task queue so a slow
// purge never blocks the cron loop.
type HistoryCleanupScheduler struct {
	tasks         TaskEnqueuer
	retentionDays int
	schedule      string

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

func NewHistoryCleanupScheduler(tasks TaskEnqueuer, retentionDays int, schedule string) *HistoryCleanupScheduler {
	return &HistoryCleanupScheduler{
		tasks:         tasks,
		retentionDays: retentionDays,
		schedule:      schedule,
		cron:          cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the cleanup schedule. Retention of zero disables it.
func (s *HistoryCleanupScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.retentionDays <= 0 {
		log.Printf("History cleanup scheduler: disabled (retention is unlimited)")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.enqueueCleanup); err != nil {
		return fmt.Errorf("failed to schedule history cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	log.Printf("History cleanup scheduler: started with schedule '%s', retention %d day(s)",
		s.schedule, s.retentionDays)
	return nil
}

// Stop waits for a running cron job to finish.
func (s *HistoryCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false

	log.Printf("History cleanup scheduler: stopped")
}

func (s *HistoryCleanupScheduler) enqueueCleanup() {
	_, err := s.tasks.Add(tasks.CleanupDownloadHistoryTask{
		RetentionDays: s.retentionDays,
	}).Save()
	if err != nil {
		log.Printf("History cleanup: failed to enqueue task: %v", err)
	}
}
