package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkau/inkshelf/internal/entities"
)

type fakeUserLister struct {
	ids []uint
	err error
}

func (f *fakeUserLister) ListIDs() ([]uint, error) {
	return f.ids, f.err
}

type fakeNotificationCreator struct {
	created []entities.Notification
	err     error
}

func (f *fakeNotificationCreator) Create(n *entities.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *n)
	return nil
}

func TestBroadcastNotificationProcessor(t *testing.T) {
	t.Run("fans out to every user", func(t *testing.T) {
		users := &fakeUserLister{ids: []uint{1, 2, 3}}
		sink := &fakeNotificationCreator{}
		processor := BroadcastNotificationProcessor(users, sink)

		err := processor(context.Background(), BroadcastNotificationTask{
			Title:   "Holiday sale",
			Message: "All audiobooks half price this weekend.",
		})
		require.NoError(t, err)

		require.Len(t, sink.created, 3)
		for i, n := range sink.created {
			assert.Equal(t, users.ids[i], n.UserID)
			assert.Equal(t, entities.NotificationKindBroadcast, n.Kind)
			assert.Equal(t, "Holiday sale", n.Title)
			assert.Equal(t, "All audiobooks half price this weekend.", n.Body)
		}
	})

	t.Run("listing failure aborts the task", func(t *testing.T) {
		users := &fakeUserLister{err: errors.New("db gone")}
		processor := BroadcastNotificationProcessor(users, &fakeNotificationCreator{})

		err := processor(context.Background(), BroadcastNotificationTask{Title: "x", Message: "y"})
		assert.Error(t, err)
	})

	t.Run("cancelled context stops fan-out", func(t *testing.T) {
		users := &fakeUserLister{ids: []uint{1, 2, 3}}
		sink := &fakeNotificationCreator{}
		processor := BroadcastNotificationProcessor(users, sink)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := processor(ctx, BroadcastNotificationTask{Title: "x", Message: "y"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, sink.created)
	})

	t.Run("nil dependencies are an error", func(t *testing.T) {
		processor := BroadcastNotificationProcessor(nil, nil)
		err := processor(context.Background(), BroadcastNotificationTask{Title: "x", Message: "y"})
		assert.Error(t, err)
	})
}

type fakeHistoryCleaner struct {
	cutoff  time.Time
	deleted int64
	err     error
	called  bool
}

func (f *fakeHistoryCleaner) DeleteOlderThan(cutoff time.Time) (int64, error) {
	f.called = true
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestCleanupDownloadHistoryProcessor(t *testing.T) {
	t.Run("deletes records past retention", func(t *testing.T) {
		cleaner := &fakeHistoryCleaner{deleted: 42}
		processor := CleanupDownloadHistoryProcessor(cleaner)

		err := processor(context.Background(), CleanupDownloadHistoryTask{RetentionDays: 30})
		require.NoError(t, err)
		require.True(t, cleaner.called)

		expected := time.Now().Add(-30 * 24 * time.Hour)
		assert.WithinDuration(t, expected, cleaner.cutoff, time.Minute)
	})

	t.Run("zero retention is a no-op", func(t *testing.T) {
		cleaner := &fakeHistoryCleaner{}
		processor := CleanupDownloadHistoryProcessor(cleaner)

		err := processor(context.Background(), CleanupDownloadHistoryTask{RetentionDays: 0})
		require.NoError(t, err)
		assert.False(t, cleaner.called)
	})

	t.Run("cleaner failure is surfaced for retry", func(t *testing.T) {
		cleaner := &fakeHistoryCleaner{err: errors.New("locked")}
		processor := CleanupDownloadHistoryProcessor(cleaner)

		err := processor(context.Background(), CleanupDownloadHistoryTask{RetentionDays: 7})
		assert.Error(t, err)
	})
}
