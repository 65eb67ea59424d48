package repositories_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"feira/internal/apiclient"
	"feira/internal/apperr"
	"feira/internal/models"
	"feira/internal/repositories"
	"feira/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientFor(t *testing.T, srv *httptest.Server, role models.Role) *apiclient.Client {
	t.Helper()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), session.Session{Role: role, Token: "tok"}))
	return apiclient.New(apiclient.Config{BaseURL: srv.URL, Timeout: time.Second}, store, role,
		slog.New(slog.NewTextHandler(io.Discard, nil)), apiclient.WithHTTPClient(srv.Client()))
}

func TestProducerUpdateStatus_SendsOnlyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/producers/me/orders/o-1/status", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"status": "SHIPPED"}, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := repositories.NewHTTPProducerOrderRepository(clientFor(t, srv, models.RoleProducer))
	assert.NoError(t, repo.UpdateStatus(context.Background(), "o-1", models.OrderStatusShipped))
}

func TestCourierUpdateStatus_SendsOnlyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"status": "delivered"}, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	repo := repositories.NewHTTPCourierOrderRepository(clientFor(t, srv, models.RoleCourier))
	assert.NoError(t, repo.UpdateStatus(context.Background(), "o-1", models.OrderStatusDelivered))
}

func TestGetByID_NotFoundIsUniform(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Pedido não encontrado"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	buyer := repositories.NewHTTPBuyerOrderRepository(clientFor(t, srv, models.RoleBuyer))
	producer := repositories.NewHTTPProducerOrderRepository(clientFor(t, srv, models.RoleProducer))
	courier := repositories.NewHTTPCourierOrderRepository(clientFor(t, srv, models.RoleCourier))

	lookups := map[string]func() (*models.Order, error){
		"buyer":    func() (*models.Order, error) { return buyer.GetByID(ctx, "missing") },
		"producer": func() (*models.Order, error) { return producer.GetByID(ctx, "missing") },
		"courier":  func() (*models.Order, error) { return courier.GetByID(ctx, "missing") },
	}
	for name, lookup := range lookups {
		order, err := lookup()
		assert.Nil(t, order, name)
		var nf *apperr.NotFoundError
		require.ErrorAs(t, err, &nf, name)
		assert.Equal(t, "order", nf.Resource, name)
		assert.Equal(t, "missing", nf.ID, name)
	}
}

func TestCourierHistory_RecomputesFlags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		// backend reports stale flags
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":       []map[string]any{{"id": "o-" + strconv.Itoa(page), "status": "DELIVERED"}},
			"pagination": map[string]any{"page": page, "limit": 20, "total": 21, "totalPages": 1, "hasNext": false, "hasPrev": false},
		})
	}))
	defer srv.Close()

	repo := repositories.NewHTTPCourierOrderRepository(clientFor(t, srv, models.RoleCourier))
	p1, err := repo.History(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.True(t, p1.Pagination.HasNext)
	assert.False(t, p1.Pagination.HasPrev)
	assert.Equal(t, 2, p1.Pagination.TotalPages)

	p2, err := repo.History(context.Background(), 2, 20)
	require.NoError(t, err)
	assert.False(t, p2.Pagination.HasNext)
	assert.True(t, p2.Pagination.HasPrev)
	assert.Equal(t, models.OrderStatusDelivered, p2.Data[0].Status)
}

func TestCourierAccept_ConflictIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/delivery-orders/abc123/accept", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Pedido já aceito por outro entregador"}`))
	}))
	defer srv.Close()

	repo := repositories.NewHTTPCourierOrderRepository(clientFor(t, srv, models.RoleCourier))
	order, err := repo.Accept(context.Background(), "abc123")
	assert.Nil(t, order)
	var srvErr *apperr.ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusConflict, srvErr.Status)
}

func TestAuthLogin_StoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/delivery/auth/login", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "opaque",
			"user":  map[string]any{"id": "c-1", "role": "courier", "name": "Carla"},
		})
	}))
	defer srv.Close()

	store := session.NewMemoryStore()
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL}, store, models.RoleCourier,
		slog.New(slog.NewTextHandler(io.Discard, nil)), apiclient.WithHTTPClient(srv.Client()))
	repo := repositories.NewHTTPAuthRepository(client, store)

	s, account, err := repo.Login(context.Background(), models.RoleCourier, repositories.Credentials{Email: "c@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "c-1", s.UserID)
	assert.Equal(t, "Carla", account.Name)

	stored, err := store.Load(context.Background(), models.RoleCourier)
	require.NoError(t, err)
	assert.Equal(t, "opaque", stored.Token)

	require.NoError(t, repo.Logout(context.Background(), models.RoleCourier))
	_, err = store.Load(context.Background(), models.RoleCourier)
	assert.ErrorIs(t, err, session.ErrNoSession)
}
