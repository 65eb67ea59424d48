package backend

import (
	"context"
	"time"

	"feira/internal/apperr"
	"feira/internal/models"
)

// NotificationService manages a user's notifications and push tokens.
type NotificationService struct {
	store Store
}

func NewNotificationService(store Store) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.store.NotificationsByUser(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkNotificationRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

// Delete removes a notification. Notifications about an order can only be
// removed once that order was delivered.
func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	n, err := s.store.NotificationByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if orderID, ok := n.OrderID(); ok {
		order, err := s.store.OrderByID(ctx, orderID)
		if err != nil && !apperr.IsNotFound(err) {
			return err
		}
		if err == nil && order.Status != models.OrderStatusDelivered {
			return conflict("Só é possível excluir notificações de pedidos entregues")
		}
	}
	return s.store.DeleteNotification(ctx, userID, id)
}

// RegisterToken attaches a push token to the user.
func (s *NotificationService) RegisterToken(ctx context.Context, userID string, token models.DeviceToken) error {
	token.UserID = userID
	token.UpdatedAt = time.Now().UTC()
	return s.store.SaveDeviceToken(ctx, &token)
}
