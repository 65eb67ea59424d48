package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"feira/internal/models"
	"feira/internal/syncqueue"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newQueue(t *testing.T) *syncqueue.Queue {
	t.Helper()
	q, err := syncqueue.New(syncqueue.NewMemoryStore(), syncqueue.Config{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}, discard, nil)
	require.NoError(t, err)
	return q
}

func orderArg(args mock.Arguments) (*models.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

// MockBuyerOrderRepository is a mock implementation of repositories.BuyerOrderRepository
type MockBuyerOrderRepository struct {
	mock.Mock
}

func (m *MockBuyerOrderRepository) ListMine(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockBuyerOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return orderArg(m.Called(ctx, id))
}

// MockProducerOrderRepository is a mock implementation of repositories.ProducerOrderRepository
type MockProducerOrderRepository struct {
	mock.Mock
}

func (m *MockProducerOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockProducerOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return orderArg(m.Called(ctx, id))
}

func (m *MockProducerOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

// MockCourierOrderRepository is a mock implementation of repositories.CourierOrderRepository
type MockCourierOrderRepository struct {
	mock.Mock
}

func (m *MockCourierOrderRepository) ListAvailable(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockCourierOrderRepository) ListAccepted(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockCourierOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return orderArg(m.Called(ctx, id))
}

func (m *MockCourierOrderRepository) Accept(ctx context.Context, id string) (*models.Order, error) {
	return orderArg(m.Called(ctx, id))
}

func (m *MockCourierOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockCourierOrderRepository) History(ctx context.Context, page, limit int) (*models.Page[models.Order], error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.Order]), args.Error(1)
}

func (m *MockCourierOrderRepository) Earnings(ctx context.Context, period models.EarningsPeriod) (*models.Earnings, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Earnings), args.Error(1)
}

// MockReviewRepository is a mock implementation of repositories.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, input models.ReviewInput) (*models.Review, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockReviewRepository) ListMine(ctx context.Context) ([]models.Review, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockNotificationRepository is a mock implementation of repositories.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockNotificationRepository) RegisterToken(ctx context.Context, token models.DeviceToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockMessaging is a mock implementation of services.Messaging
type MockMessaging struct {
	mock.Mock
}

func (m *MockMessaging) RequestPermission(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockMessaging) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
