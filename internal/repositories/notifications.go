package repositories

import (
	"context"
	"net/http"

	"feira/internal/apiclient"
	"feira/internal/apperr"
	"feira/internal/models"
)

// NotificationRepository defines the notification endpoints.
type NotificationRepository interface {
	List(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	RegisterToken(ctx context.Context, token models.DeviceToken) error
	Delete(ctx context.Context, id string) error
}

// HTTPNotificationRepository implements NotificationRepository over
// /notifications.
type HTTPNotificationRepository struct {
	client *apiclient.Client
}

func NewHTTPNotificationRepository(client *apiclient.Client) *HTTPNotificationRepository {
	return &HTTPNotificationRepository{client: client}
}

func (r *HTTPNotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/notifications"}, &out)
	if err != nil {
		return nil, wrap("failed to list notifications", err)
	}
	return out, nil
}

func (r *HTTPNotificationRepository) MarkRead(ctx context.Context, id string) error {
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/notifications/" + escape(id) + "/mark-read"}, nil)
	return wrap("failed to mark notification "+id+" read", notificationNotFound(err, id))
}

func (r *HTTPNotificationRepository) MarkAllRead(ctx context.Context) error {
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/notifications/mark-all-read"}, nil)
	return wrap("failed to mark all notifications read", err)
}

func (r *HTTPNotificationRepository) RegisterToken(ctx context.Context, token models.DeviceToken) error {
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/notifications/register-token", Body: token}, nil)
	return wrap("failed to register push token", err)
}

func (r *HTTPNotificationRepository) Delete(ctx context.Context, id string) error {
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: "/notifications/" + escape(id)}, nil)
	return wrap("failed to delete notification "+id, notificationNotFound(err, id))
}

func notificationNotFound(err error, id string) error {
	if apperr.IsNotFound(err) {
		return &apperr.NotFoundError{Resource: "notification", ID: id}
	}
	return err
}
