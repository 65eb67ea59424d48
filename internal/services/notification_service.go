package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"feira/internal/apperr"
	"feira/internal/models"
	"feira/internal/repositories"
	"feira/internal/syncqueue"
)

// KindDeleteNotification is the sync queue job kind for backend deletes.
const KindDeleteNotification = "delete_notification"

// ErrNotificationLocked is returned when a notification still refers to an
// order that has not been delivered.
var ErrNotificationLocked = errors.New("notification refers to an order that is not delivered yet")

// OrderLookup fetches the order a notification points to.
type OrderLookup interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
}

// NotificationService lists notifications and gates their deletion.
type NotificationService struct {
	repo   repositories.NotificationRepository
	orders OrderLookup
	queue  *syncqueue.Queue
	logger *slog.Logger
}

type deletePayload struct {
	ID string `json:"id"`
}

// NewNotificationService creates the service and registers its queue handler.
func NewNotificationService(repo repositories.NotificationRepository, orders OrderLookup, queue *syncqueue.Queue, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &NotificationService{repo: repo, orders: orders, queue: queue, logger: logger}
	queue.Handle(KindDeleteNotification, s.deleteRemote)
	return s
}

func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	return s.repo.List(ctx)
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return s.repo.MarkAllRead(ctx)
}

// CanDelete reports whether n may be removed: it has no order, or the order
// was delivered.
func (s *NotificationService) CanDelete(ctx context.Context, n models.Notification) (bool, error) {
	orderID, ok := n.OrderID()
	if !ok {
		return true, nil
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return order.Status == models.OrderStatusDelivered, nil
}

// Delete queues the backend delete of n. The returned job reports progress.
func (s *NotificationService) Delete(ctx context.Context, n models.Notification) (syncqueue.Job, error) {
	ok, err := s.CanDelete(ctx, n)
	if err != nil {
		return syncqueue.Job{}, err
	}
	if !ok {
		return syncqueue.Job{}, ErrNotificationLocked
	}
	return s.queue.Enqueue(ctx, KindDeleteNotification, deleteKey(n.ID), deletePayload{ID: n.ID})
}

// DeleteStatus returns the queue state of a previously requested delete.
func (s *NotificationService) DeleteStatus(ctx context.Context, id string) (syncqueue.Job, error) {
	return s.queue.Status(ctx, deleteKey(id))
}

func (s *NotificationService) deleteRemote(ctx context.Context, payload []byte) error {
	var p deletePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("failed to decode delete payload: %w", err)
	}
	err := s.repo.Delete(ctx, p.ID)
	if apperr.IsNotFound(err) {
		s.logger.Info("notification already gone", "notification_id", p.ID)
		return nil
	}
	return err
}

func deleteKey(id string) string {
	return "notification:" + id
}
