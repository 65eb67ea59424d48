package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"feira/internal/apiclient"
	"feira/internal/apperr"
	"feira/internal/estimate"
	"feira/internal/models"
	"feira/internal/repositories"
	"feira/internal/services"
	"feira/internal/session"
	"feira/internal/syncqueue"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sdk drives the running app through the client SDK, the way the mobile
// screens do.
type sdk struct {
	env    *testEnv
	tokens session.TokenStore
	srv    *httptest.Server
	logger *slog.Logger
}

func newSDK(t *testing.T) *sdk {
	t.Helper()
	env := setupApp(t)
	srv := httptest.NewServer(adaptor.FiberApp(env.app))
	t.Cleanup(srv.Close)
	return &sdk{env: env, tokens: session.NewMemoryStore(), srv: srv, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (s *sdk) client(role models.Role) *apiclient.Client {
	return apiclient.New(apiclient.Config{BaseURL: s.srv.URL, Timeout: 5 * time.Second}, s.tokens, role, s.logger)
}

// loginAs signs in on a separate token store so several couriers can be
// logged in at once.
func (s *sdk) loginAs(t *testing.T, role models.Role, email string, store session.TokenStore) *apiclient.Client {
	t.Helper()
	c := apiclient.New(apiclient.Config{BaseURL: s.srv.URL, Timeout: 5 * time.Second}, store, role, s.logger)
	_, _, err := repositories.NewHTTPAuthRepository(c, store).Login(context.Background(), role, repositories.Credentials{Email: email, Password: "feira123"})
	require.NoError(t, err)
	return c
}

func TestSDK_SessionsAreRoleScoped(t *testing.T) {
	s := newSDK(t)
	ctx := context.Background()
	auth := repositories.NewHTTPAuthRepository(s.client(models.RoleBuyer), s.tokens)

	buyerSession, account, err := auth.Login(ctx, models.RoleBuyer, repositories.Credentials{Email: s.env.demo.Buyer.Email, Password: "feira123"})
	require.NoError(t, err)
	assert.Equal(t, s.env.demo.Buyer.ID, buyerSession.UserID)
	assert.Equal(t, "Ana Souza", account.Name)

	_, _, err = auth.Login(ctx, models.RoleCourier, repositories.Credentials{Email: s.env.demo.Couriers[0].Email, Password: "feira123"})
	require.NoError(t, err)

	buyerOrders, err := repositories.NewHTTPBuyerOrderRepository(s.client(models.RoleBuyer)).ListMine(ctx)
	require.NoError(t, err)
	assert.Len(t, buyerOrders, len(s.env.demo.Orders))

	accepted, err := repositories.NewHTTPCourierOrderRepository(s.client(models.RoleCourier)).ListAccepted(ctx)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, models.OrderStatusShipped, accepted[0].Status)

	// No producer session was stored: the request is never sent.
	_, err = repositories.NewHTTPProducerOrderRepository(s.client(models.RoleProducer)).List(ctx)
	assert.True(t, apperr.IsAuth(err))

	_, _, err = auth.Login(ctx, models.RoleBuyer, repositories.Credentials{Email: s.env.demo.Buyer.Email, Password: "wrong-password"})
	assert.True(t, apperr.IsAuth(err))
}

func TestSDK_GetByIDNotFoundIsUniform(t *testing.T) {
	s := newSDK(t)
	ctx := context.Background()
	buyer := s.loginAs(t, models.RoleBuyer, s.env.demo.Buyer.Email, s.tokens)
	producer := s.loginAs(t, models.RoleProducer, s.env.demo.Producer.Email, s.tokens)
	courier := s.loginAs(t, models.RoleCourier, s.env.demo.Couriers[0].Email, s.tokens)

	_, err := repositories.NewHTTPBuyerOrderRepository(buyer).GetByID(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
	_, err = repositories.NewHTTPProducerOrderRepository(producer).GetByID(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
	_, err = repositories.NewHTTPCourierOrderRepository(courier).GetByID(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestSDK_ProducerAdvancesOrder(t *testing.T) {
	s := newSDK(t)
	ctx := context.Background()
	producer := services.NewProducerOrderService(repositories.NewHTTPProducerOrderRepository(
		s.loginAs(t, models.RoleProducer, s.env.demo.Producer.Email, s.tokens)))
	id := s.env.demo.Orders[0].ID

	before, err := producer.Details(ctx, id)
	require.NoError(t, err)
	next, ok := producer.NextStatus(before.Status)
	require.True(t, ok)

	require.NoError(t, producer.Advance(ctx, id, next))
	after, err := producer.Details(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, after.Status)
	assert.Equal(t, "Em preparação", after.StatusLabel)

	err = producer.Advance(ctx, id, models.OrderStatusProcessing)
	require.Error(t, err)
	assert.NotEqual(t, apperr.MsgServer, apperr.UserMessage(err))
}

func TestSDK_LosingAcceptRaceLeavesListUntouched(t *testing.T) {
	s := newSDK(t)
	ctx := context.Background()
	est := estimate.NewAddressHeuristic(nil, nil)
	winner := services.NewCourierService(repositories.NewHTTPCourierOrderRepository(
		s.loginAs(t, models.RoleCourier, s.env.demo.Couriers[0].Email, session.NewMemoryStore())), est, s.logger)
	loser := services.NewCourierService(repositories.NewHTTPCourierOrderRepository(
		s.loginAs(t, models.RoleCourier, s.env.demo.Couriers[1].Email, session.NewMemoryStore())), est, s.logger)

	available, err := loser.Available(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	id := available[0].ID
	assert.Equal(t, 7.99, available[0].Fee)
	assert.Equal(t, "35-45 min", available[0].ETA)

	_, err = winner.Accept(ctx, id)
	require.NoError(t, err)

	_, err = loser.Accept(ctx, id)
	require.Error(t, err)
	assert.Equal(t, services.MsgAcceptFailed, apperr.UserMessage(err))
	assert.Empty(t, loser.MyOrders())

	require.NoError(t, winner.UpdateStatus(ctx, id, models.OrderStatusShipped))
	require.NoError(t, winner.UpdateStatus(ctx, id, models.OrderStatusDelivered))
	for _, o := range winner.MyOrders() {
		assert.NotEqual(t, id, o.ID)
	}
}

func TestSDK_HistoryPagesAreDisjoint(t *testing.T) {
	s := newSDK(t)
	ctx := context.Background()
	courierID := s.env.demo.Couriers[0].ID
	for i := 0; i < 6; i++ {
		o := models.Order{BuyerID: s.env.demo.Buyer.ID, CourierID: &courierID, Status: models.OrderStatusDelivered}
		require.NoError(t, s.env.store.CreateOrder(ctx, &o))
	}
	courier := services.NewCourierService(repositories.NewHTTPCourierOrderRepository(
		s.loginAs(t, models.RoleCourier, s.env.demo.Couriers[0].Email, s.tokens)), nil, s.logger)

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		got, err := courier.History(ctx, page, 3)
		require.NoError(t, err)
		assert.True(t, got.Pagination.Consistent())
		assert.Equal(t, 7, got.Pagination.Total)
		assert.Equal(t, 3, got.Pagination.TotalPages)
		assert.Equal(t, page < 3, got.Pagination.HasNext)
		for _, o := range got.Data {
			assert.False(t, seen[o.ID])
			seen[o.ID] = true
		}
	}
	assert.Len(t, seen, 7)
}

func TestSDK_ReviewGate(t *testing.T) {
	s := newSDK(t)
	ctx := context.Background()
	buyerClient := s.loginAs(t, models.RoleBuyer, s.env.demo.Buyer.Email, s.tokens)
	orders := services.NewBuyerOrderService(repositories.NewHTTPBuyerOrderRepository(buyerClient), nil)
	reviews := services.NewReviewService(repositories.NewHTTPReviewRepository(buyerClient))

	order, err := orders.Details(ctx, s.env.demo.Orders[3].ID)
	require.NoError(t, err)
	items := orders.ReviewableItems(order.Order)
	require.Len(t, items, 2)

	input := models.ReviewInput{ProductID: items[0].ProductID, OrderItemID: &items[0].ID, Rating: 4}
	_, err = reviews.Submit(ctx, input)
	require.NoError(t, err)

	_, err = reviews.Submit(ctx, input)
	assert.Equal(t, "Você já avaliou este item", apperr.UserMessage(err))

	order, err = orders.Details(ctx, s.env.demo.Orders[3].ID)
	require.NoError(t, err)
	assert.Len(t, orders.ReviewableItems(order.Order), 1)

	mine, err := reviews.MyReviews(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NoError(t, reviews.Delete(ctx, mine[0].ID))
}

type grantedMessaging struct{}

func (grantedMessaging) RequestPermission(context.Context) (bool, error) { return true, nil }
func (grantedMessaging) Token(context.Context) (string, error)           { return "fcm-device-token", nil }

func TestSDK_BackgroundSync(t *testing.T) {
	s := newSDK(t)
	ctx := context.Background()
	buyerClient := s.loginAs(t, models.RoleBuyer, s.env.demo.Buyer.Email, s.tokens)
	notifRepo := repositories.NewHTTPNotificationRepository(buyerClient)

	q, err := syncqueue.New(syncqueue.NewMemoryStore(), syncqueue.Config{MaxAttempts: 2, InitialInterval: time.Millisecond}, s.logger, nil)
	require.NoError(t, err)
	notifications := services.NewNotificationService(notifRepo, repositories.NewHTTPBuyerOrderRepository(buyerClient), q, s.logger)
	push := services.NewPushTokenService(grantedMessaging{}, notifRepo, q, "android", s.logger)

	state, err := push.Register(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.PushRegistrationPending, state)

	// A status change produces a buyer notification for an undelivered order.
	producer := repositories.NewHTTPProducerOrderRepository(s.loginAs(t, models.RoleProducer, s.env.demo.Producer.Email, s.tokens))
	require.NoError(t, producer.UpdateStatus(ctx, s.env.demo.Orders[0].ID, models.OrderStatusProcessing))

	list, err := notifications.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = notifications.Delete(ctx, list[0])
	assert.ErrorIs(t, err, services.ErrNotificationLocked)

	require.NoError(t, q.Flush(ctx))
	assert.Equal(t, services.PushTokenRegistered, push.State(ctx))
}
