package interfaces

// Compile-time interface implementation checks. These catch missing
// repository methods at build time instead of at task execution time.

import (
	"github.com/avolkau/inkshelf/internal/database/downloads"
	"github.com/avolkau/inkshelf/internal/database/notifications"
	"github.com/avolkau/inkshelf/internal/database/users"
	"github.com/avolkau/inkshelf/internal/scheduler"
	"github.com/avolkau/inkshelf/internal/tasks"
)

// Task queue dependencies
var _ tasks.UserLister = (*users.Repository)(nil)
var _ tasks.NotificationCreator = (*notifications.Repository)(nil)
var _ tasks.DownloadHistoryCleaner = (*downloads.Repository)(nil)

// Scheduler dependencies
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
