package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"feira/internal/apperr"
	"feira/internal/backend"
	"feira/internal/handlers"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// startBackend serves a seeded backend and points the client config at it.
func startBackend(t *testing.T) *backend.Demo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	store, err := backend.NewGORMStore(db)
	require.NoError(t, err)
	auth := backend.NewAuthService(store, "cli_test_secret", time.Hour, logger)
	demo, err := backend.Seed(context.Background(), store, auth)
	require.NoError(t, err)

	app := handlers.NewApp(handlers.Services{
		Auth:          auth,
		Orders:        backend.NewOrderService(store, backend.NewDirectNotifier(store), logger),
		Reviews:       backend.NewReviewService(store),
		Notifications: backend.NewNotificationService(store),
	}, handlers.AppOptions{Logger: logger})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	t.Setenv("FEIRA_CLIENT_BASE_URL", srv.URL)
	t.Setenv("FEIRA_CLIENT_STORE_PATH", filepath.Join(t.TempDir(), "client.db"))
	t.Setenv("FEIRA_CLIENT_PASSPHRASE", "cli-test-passphrase")
	t.Setenv("FEIRA_LOG_LEVEL", "error")
	return demo
}

func feira(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func login(t *testing.T, role, email string) {
	t.Helper()
	_, err := feira(t, "", "--role", role, "login", "--email", email, "--password", backend.DemoPassword)
	require.NoError(t, err)
}

func TestCLI_Usage(t *testing.T) {
	out, err := feira(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "usage: feira")

	_, err = feira(t, "", "teleport")
	assert.ErrorContains(t, err, `unknown command "teleport"`)
}

func TestCLI_SessionPersistsAcrossRuns(t *testing.T) {
	demo := startBackend(t)

	_, err := feira(t, "", "orders")
	require.Error(t, err)

	login(t, "buyer", demo.Buyer.Email)
	out, err := feira(t, "", "orders")
	require.NoError(t, err)

	var views []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	assert.Len(t, views, len(demo.Orders))
	assert.NotEmpty(t, views[0]["statusLabel"])

	_, err = feira(t, "", "logout")
	require.NoError(t, err)
	_, err = feira(t, "", "orders")
	assert.Error(t, err)
}

func TestCLI_RoleGuards(t *testing.T) {
	demo := startBackend(t)
	login(t, "buyer", demo.Buyer.Email)

	_, err := feira(t, "", "accept", demo.Orders[1].ID)
	assert.ErrorContains(t, err, "not available for role buyer")
}

func TestCLI_ProducerAdvanceAndCourierDelivery(t *testing.T) {
	demo := startBackend(t)
	login(t, "producer", demo.Producer.Email)
	login(t, "courier", demo.Couriers[0].Email)

	out, err := feira(t, "", "--role", "producer", "advance", demo.Orders[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "processing"`)

	out, err = feira(t, "", "--role", "courier", "accept", demo.Orders[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, demo.Orders[0].ID)

	_, err = feira(t, "", "--role", "courier", "status", demo.Orders[0].ID, "SHIPPED")
	require.NoError(t, err)
	out, err = feira(t, "", "--role", "courier", "status", demo.Orders[0].ID, "delivered")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "delivered"`)

	out, err = feira(t, "", "--role", "courier", "earnings", "--period", "today")
	require.NoError(t, err)
	assert.Contains(t, out, `"period": "today"`)

	_, err = feira(t, "", "--role", "courier", "earnings", "--period", "year")
	assert.Error(t, err)
}

func TestCLI_ReviewPromptsForRating(t *testing.T) {
	demo := startBackend(t)
	login(t, "buyer", demo.Buyer.Email)
	delivered := demo.Orders[3]

	out, err := feira(t, "5\nMuito fresco\n", "review", delivered.ID, delivered.Items[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, `"rating": 5`)
	assert.Contains(t, out, "Muito fresco")

	// Already reviewed.
	_, err = feira(t, "", "review", "--rating", "4", delivered.ID, delivered.Items[0].ID)
	assert.Error(t, err)

	// Empty input abandons the form.
	_, err = feira(t, "\n", "review", delivered.ID, delivered.Items[1].ID)
	assert.Error(t, err)

	// Pending orders cannot be reviewed.
	_, err = feira(t, "", "review", "--rating", "4", demo.Orders[0].ID, demo.Orders[0].Items[0].ID)
	assert.ErrorContains(t, err, "cannot be reviewed")
}

func TestCLI_PushTokenRegistration(t *testing.T) {
	demo := startBackend(t)
	login(t, "buyer", demo.Buyer.Email)

	out, err := feira(t, "", "push", "--token", "device-token-123")
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "token_registered"`)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "boom", describe(errors.New("boom")))
	assert.Equal(t, apperr.MsgSessionExpired+": "+(&apperr.AuthError{}).Error(), describe(&apperr.AuthError{}))

	wrapped := apperr.WithMessage(&apperr.ServerError{Status: 409}, "Não foi possível aceitar o pedido")
	assert.Equal(t, wrapped.Error(), describe(wrapped))
}

func TestCLI_WrongPasswordShowsServerMessage(t *testing.T) {
	demo := startBackend(t)

	_, err := feira(t, "", "login", "--email", demo.Buyer.Email, "--password", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "E-mail ou senha inválidos", apperr.UserMessage(err))

	msg := describe(err)
	assert.True(t, strings.HasPrefix(msg, "E-mail ou senha inválidos"), msg)
	assert.NotContains(t, msg, apperr.MsgSessionExpired)
}

func TestCLI_EstimateFromPickedLocation(t *testing.T) {
	startBackend(t)

	out, err := feira(t, "", "estimate", "--address", "Rua Cardeal Arcoverde 300, Pinheiros", "--lat", "-23.56", "--lng", "-46.68")
	require.NoError(t, err)
	var got struct {
		Location struct {
			Latitude float64 `json:"latitude"`
			Address  string  `json:"address"`
		} `json:"location"`
		Fee float64 `json:"fee"`
		ETA string  `json:"eta"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, -23.56, got.Location.Latitude, 0.0001)
	assert.InDelta(t, 5.99, got.Fee, 0.001)
	assert.Equal(t, "25-35 min", got.ETA)

	out, err = feira(t, "Av. Ibirapuera 2000, Moema\n", "estimate")
	require.NoError(t, err)
	assert.Contains(t, out, `"fee": 7.99`)

	// Backing out of the picker ends the flow without an estimate.
	out, err = feira(t, "\n", "estimate")
	assert.Error(t, err)
	assert.NotContains(t, out, `"fee"`)
}
