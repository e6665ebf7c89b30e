package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sistem-rt/portal-api/internal/models"
	"github.com/sistem-rt/portal-api/pkg/jobs"
)

type notificationStoreStub struct {
	mu       sync.Mutex
	items    []*models.Notification
	failOnce bool
}

func (s *notificationStoreStub) Create(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOnce {
		s.failOnce = false
		return fmt.Errorf("connection reset")
	}
	s.items = append(s.items, n)
	return nil
}

func (s *notificationStoreStub) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Notification
	for _, n := range s.items {
		if n.UserID == userID {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (s *notificationStoreStub) MarkRead(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *notificationStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func TestNotifyWithoutQueueInsertsSynchronously(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, nil)

	svc.Notify(context.Background(), "user-1", models.NotificationKindNews, "Berita Baru", "Kerja bakti", "/home")
	require.Equal(t, 1, store.count())
	require.Equal(t, "Berita Baru", store.items[0].Title)
	require.False(t, store.items[0].IsRead)
}

func TestNotifyThroughQueueDelivers(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, nil)
	svc.Start(context.Background(), jobs.QueueConfig{Workers: 1, BufferSize: 4})
	defer svc.Stop()

	svc.Notify(context.Background(), "user-1", models.NotificationKindPayment, "Pembayaran Diterima", "Iuran dicatat", "/home")

	require.Eventually(t, func() bool {
		return store.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNotifyRetriesFailedDelivery(t *testing.T) {
	store := &notificationStoreStub{failOnce: true}
	svc := NewNotificationService(store, nil)
	svc.Start(context.Background(), jobs.QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	defer svc.Stop()

	svc.Notify(context.Background(), "user-1", models.NotificationKindApplication, "Pengajuan Disetujui", "Surat siap", "/home")

	require.Eventually(t, func() bool {
		return store.count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	store := &notificationStoreStub{}
	svc := NewNotificationService(store, nil)

	svc.Notify(context.Background(), "user-1", models.NotificationKindNews, "Berita", "Isi", "/home")
	id := store.items[0].ID

	require.NoError(t, svc.MarkRead(context.Background(), id, "user-2"))
	require.False(t, store.items[0].IsRead)

	require.NoError(t, svc.MarkRead(context.Background(), id, "user-1"))
	require.True(t, store.items[0].IsRead)
}
