package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"feira/internal/backend"
	"feira/internal/config"
	"feira/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockPublisher is a mock implementation of backend.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, body []byte) error {
	return m.Called(routingKey, body).Error(0)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	return cfg
}

func TestBuildServer_SQLite(t *testing.T) {
	cfg := testConfig(t)
	db, err := openDB(cfg.Server)
	require.NoError(t, err)

	srv, err := buildServer(context.Background(), cfg, db, discard)
	require.NoError(t, err)
	defer srv.close(discard)

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "disabled", body["rabbitmq"])

	// Demo data is seeded by default.
	_, err = srv.store.AccountByEmail(context.Background(), "ana@feira.dev", models.RoleBuyer)
	assert.NoError(t, err)
}

func TestBuildServer_Postgres(t *testing.T) {
	dsn := os.Getenv("FEIRA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FEIRA_TEST_POSTGRES_DSN not set")
	}
	cfg := testConfig(t)
	cfg.Server.DBDriver = "postgres"
	cfg.Server.DSN = dsn
	cfg.Server.Seed = false

	db, err := openDB(cfg.Server)
	require.NoError(t, err)
	srv, err := buildServer(context.Background(), cfg, db, discard)
	require.NoError(t, err)
	srv.close(discard)
}

func TestBrokerNotifier_RoundTrip(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Seed = false
	db, err := openDB(cfg.Server)
	require.NoError(t, err)
	srv, err := buildServer(context.Background(), cfg, db, discard)
	require.NoError(t, err)

	pub := new(MockPublisher)
	var published []byte
	pub.On("Publish", backend.RoutingKeyStatusChanged, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(1).([]byte) }).
		Return(nil).Once()

	ev := backend.StatusEvent{OrderID: "order-12345678", BuyerID: "buyer-1", From: models.OrderStatusShipped, Status: models.OrderStatusDelivered, ChangedAt: time.Now().UTC()}
	require.NoError(t, backend.NewBrokerNotifier(pub, discard).StatusChanged(context.Background(), ev))
	pub.AssertExpectations(t)

	// The consumer side turns the event into a buyer notification.
	require.NoError(t, backend.HandleStatusEvent(context.Background(), backend.NewDirectNotifier(srv.store), published))
	notes, err := srv.store.NotificationsByUser(context.Background(), "buyer-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Pedido Entregue", notes[0].Title)
	orderID, ok := notes[0].OrderID()
	assert.True(t, ok)
	assert.Equal(t, "order-12345678", orderID)

	assert.Error(t, backend.HandleStatusEvent(context.Background(), backend.NewDirectNotifier(srv.store), []byte("{")))
}
