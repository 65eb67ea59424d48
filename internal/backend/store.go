// Package backend is the marketplace's development backend: persistence,
// role rules and order status transitions behind the REST contract the SDK
// talks to.
package backend

import (
	"context"
	"time"

	"feira/internal/models"
)

// Store defines data access for the backend.
type Store interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	AccountByEmail(ctx context.Context, email string, role models.Role) (*models.Account, error)
	AccountByID(ctx context.Context, id string) (*models.Account, error)

	CreateProduct(ctx context.Context, product *models.Product) error
	ProductByID(ctx context.Context, id string) (*models.Product, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	OrderByID(ctx context.Context, id string) (*models.Order, error)
	OrderItemByID(ctx context.Context, id string) (*models.OrderItem, error)
	OrdersByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	OrdersByProducer(ctx context.Context, producerID string) ([]models.Order, error)
	AvailableOrders(ctx context.Context) ([]models.Order, error)
	ActiveOrdersByCourier(ctx context.Context, courierID string) ([]models.Order, error)
	CourierHistory(ctx context.Context, courierID string, offset, limit int) ([]models.Order, int64, error)
	CourierEarnings(ctx context.Context, courierID string, since time.Time) (float64, int, error)
	AssignCourier(ctx context.Context, orderID, courierID string) error
	SetStatus(ctx context.Context, orderID string, from, to models.OrderStatus, at time.Time) error

	CreateReview(ctx context.Context, review *models.Review) error
	ReviewByID(ctx context.Context, id string) (*models.Review, error)
	ReviewsByProduct(ctx context.Context, productID string) ([]models.Review, error)
	ReviewsByUser(ctx context.Context, userID string) ([]models.Review, error)
	DeleteReview(ctx context.Context, id string) error

	CreateNotification(ctx context.Context, n *models.Notification) error
	NotificationByID(ctx context.Context, userID, id string) (*models.Notification, error)
	NotificationsByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, userID, id string) error

	SaveDeviceToken(ctx context.Context, token *models.DeviceToken) error
}
