package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sistem-rt/portal-api/internal/models"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
	"github.com/sistem-rt/portal-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// NotificationService fans out per-user notifications through a background
// worker pool and serves the read API. Delivery is best effort: a failed
// insert is retried by the queue and eventually logged, never surfaced to the
// operation that triggered it.
type NotificationService struct {
	repo   notificationStore
	logger *zap.Logger
	queue  *jobs.Queue
}

// NewNotificationService constructs the service. Call Start before relying on
// asynchronous delivery; without a running queue Notify falls back to a
// synchronous insert.
func NewNotificationService(repo notificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context, cfg jobs.QueueConfig) {
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	s.queue = jobs.NewQueue("notifications", s.process, cfg)
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// Notify records a notification for the user. Errors are absorbed here so
// callers can treat delivery as fire-and-forget.
func (s *NotificationService) Notify(ctx context.Context, userID string, kind models.NotificationKind, title, message, link string) {
	n := &models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Kind:    kind,
		Title:   title,
		Message: message,
		Link:    link,
	}

	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{
			ID:      n.ID,
			Type:    string(kind),
			Payload: n,
		})
		if err == nil {
			return
		}
		s.logger.Warn("notification enqueue failed, inserting synchronously",
			zap.String("user_id", userID), zap.Error(err))
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to deliver notification",
			zap.String("user_id", userID), zap.String("title", title), zap.Error(err))
	}
}

// ListMine returns the caller's latest notifications.
func (s *NotificationService) ListMine(ctx context.Context, userID string) ([]models.Notification, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

func (s *NotificationService) process(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(*models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}
	return s.repo.Create(ctx, n)
}
