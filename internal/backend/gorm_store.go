package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feira/internal/apperr"
	"feira/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMStore is a GORM implementation of Store.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore migrates the schema and returns a store backed by db.
func NewGORMStore(db *gorm.DB) (*GORMStore, error) {
	err := db.AutoMigrate(
		&models.Account{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
		&models.Notification{},
		&models.DeviceToken{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &GORMStore{db: db}, nil
}

func notFound(err error, resource, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperr.NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("failed to get %s %s: %w", resource, id, err)
}

// CreateAccount creates a new account. Email is unique per role.
func (s *GORMStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return conflict("e-mail já cadastrado")
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *GORMStore) AccountByEmail(ctx context.Context, email string, role models.Role) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).First(&account, "email = ? AND role = ?", email, role).Error
	if err != nil {
		return nil, notFound(err, "account", email)
	}
	return &account, nil
}

func (s *GORMStore) AccountByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "account", id)
	}
	return &account, nil
}

// CreateProduct creates a new product in the database.
func (s *GORMStore) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *GORMStore) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product", id)
	}
	return &product, nil
}

// CreateOrder stores an order with its items.
func (s *GORMStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *GORMStore) orders(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
}

func (s *GORMStore) OrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

func (s *GORMStore) OrderItemByID(ctx context.Context, id string) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "order item", id)
	}
	return &item, nil
}

func (s *GORMStore) OrdersByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := s.orders(ctx).Find(&orders, "buyer_id = ?", buyerID).Error; err != nil {
		return nil, fmt.Errorf("failed to list buyer orders: %w", err)
	}
	return orders, nil
}

// OrdersByProducer lists orders with at least one line sold by the producer.
func (s *GORMStore) OrdersByProducer(ctx context.Context, producerID string) ([]models.Order, error) {
	lines := s.db.Model(&models.OrderItem{}).Select("order_id").Where("producer_id = ?", producerID)
	var orders []models.Order
	if err := s.orders(ctx).Where("id IN (?)", lines).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list producer orders: %w", err)
	}
	return orders, nil
}

// AvailableOrders lists orders ready for pickup that no courier accepted yet.
func (s *GORMStore) AvailableOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.orders(ctx).
		Where("courier_id IS NULL AND status IN ?", []models.OrderStatus{models.OrderStatusProcessing, models.OrderStatusShipped}).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list available orders: %w", err)
	}
	return orders, nil
}

func (s *GORMStore) ActiveOrdersByCourier(ctx context.Context, courierID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.orders(ctx).
		Where("courier_id = ? AND status NOT IN ?", courierID, []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCanceled}).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted orders: %w", err)
	}
	return orders, nil
}

// CourierHistory returns one page of the courier's finished orders and the
// total count.
func (s *GORMStore) CourierHistory(ctx context.Context, courierID string, offset, limit int) ([]models.Order, int64, error) {
	finished := []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCanceled}
	base := s.db.WithContext(ctx).Model(&models.Order{}).Where("courier_id = ? AND status IN ?", courierID, finished)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count history: %w", err)
	}
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("courier_id = ? AND status IN ?", courierID, finished).
		Order("updated_at DESC").Order("id").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}
	return orders, total, nil
}

// CourierEarnings sums delivery fees of orders delivered since the given time.
func (s *GORMStore) CourierEarnings(ctx context.Context, courierID string, since time.Time) (float64, int, error) {
	var row struct {
		Total      float64
		Deliveries int
	}
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(delivery_fee), 0) AS total, COUNT(*) AS deliveries").
		Where("courier_id = ? AND status = ? AND delivered_at >= ?", courierID, models.OrderStatusDelivered, since).
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum earnings: %w", err)
	}
	return row.Total, row.Deliveries, nil
}

// AssignCourier claims an order for a courier. Only one courier can win: the
// update is conditional on the order still being unassigned and open for
// delivery.
func (s *GORMStore) AssignCourier(ctx context.Context, orderID, courierID string) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND courier_id IS NULL AND status IN ?", orderID,
			[]string{string(models.OrderStatusProcessing), string(models.OrderStatusShipped)}).
		Update("courier_id", courierID)
	if res.Error != nil {
		return fmt.Errorf("failed to assign order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		order, err := s.OrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.CourierID != nil {
			return conflict("pedido já foi aceito por outro entregador")
		}
		return conflict("pedido não está disponível para entrega")
	}
	return nil
}

// SetStatus moves an order from one status to another. It fails with a
// conflict if the order is no longer in from.
func (s *GORMStore) SetStatus(ctx context.Context, orderID string, from, to models.OrderStatus, at time.Time) error {
	updates := map[string]any{"status": to, "updated_at": at}
	if to == models.OrderStatusDelivered {
		updates["delivered_at"] = at
	}
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %s status: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.OrderByID(ctx, orderID); err != nil {
			return err
		}
		return conflict("o pedido mudou de status, atualize e tente novamente")
	}
	return nil
}

// CreateReview stores the review, marks the reviewed line and refreshes the
// product's rating in one transaction.
func (s *GORMStore) CreateReview(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if review.OrderItemID != nil {
			res := tx.Model(&models.OrderItem{}).
				Where("id = ? AND reviewed = ?", *review.OrderItemID, false).
				Update("reviewed", true)
			if res.Error != nil {
				return fmt.Errorf("failed to mark item reviewed: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return conflict("Você já avaliou este item")
			}
		}
		if err := tx.Create(review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("Você já avaliou este item")
			}
			return fmt.Errorf("failed to create review: %w", err)
		}
		return refreshRating(tx, review.ProductID)
	})
}

func refreshRating(tx *gorm.DB, productID string) error {
	var agg struct {
		Avg   float64
		Count int
	}
	err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	err = tx.Model(&models.Product{}).Where("id = ?", productID).
		Updates(map[string]any{"rating": agg.Avg, "review_count": agg.Count}).Error
	if err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}
	return nil
}

func (s *GORMStore) ReviewByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "review", id)
	}
	return &review, nil
}

func (s *GORMStore) ReviewsByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&reviews, "product_id = ?", productID).Error; err != nil {
		return nil, fmt.Errorf("failed to list product reviews: %w", err)
	}
	return reviews, nil
}

func (s *GORMStore) ReviewsByUser(ctx context.Context, userID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&reviews, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to list user reviews: %w", err)
	}
	return reviews, nil
}

// DeleteReview removes the review and frees its order line for a new one.
func (s *GORMStore) DeleteReview(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, "id = ?", id).Error; err != nil {
			return notFound(err, "review", id)
		}
		if err := tx.Delete(&review).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		if review.OrderItemID != nil {
			err := tx.Model(&models.OrderItem{}).Where("id = ?", *review.OrderItemID).Update("reviewed", false).Error
			if err != nil {
				return fmt.Errorf("failed to reopen item for review: %w", err)
			}
		}
		return refreshRating(tx, review.ProductID)
	})
}

func (s *GORMStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *GORMStore) NotificationByID(ctx context.Context, userID, id string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, notFound(err, "notification", id)
	}
	return &n, nil
}

func (s *GORMStore) NotificationsByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var out []models.Notification
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

func (s *GORMStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperr.NotFoundError{Resource: "notification", ID: id}
	}
	return nil
}

func (s *GORMStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *GORMStore) DeleteNotification(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Notification{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperr.NotFoundError{Resource: "notification", ID: id}
	}
	return nil
}

// SaveDeviceToken registers a push token, moving it to the user if another
// account had it.
func (s *GORMStore) SaveDeviceToken(ctx context.Context, token *models.DeviceToken) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(token).Error
	if err != nil {
		return fmt.Errorf("failed to save device token: %w", err)
	}
	return nil
}
