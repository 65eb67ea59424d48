package repositories

import (
	"context"
	"net/http"

	"feira/internal/apiclient"
	"feira/internal/models"
)

// BuyerOrderRepository lists and reads the orders placed by the signed-in buyer.
type BuyerOrderRepository interface {
	ListMine(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
}

// HTTPBuyerOrderRepository implements BuyerOrderRepository over /orders.
type HTTPBuyerOrderRepository struct {
	client *apiclient.Client
}

// NewHTTPBuyerOrderRepository creates a repository bound to a buyer client.
func NewHTTPBuyerOrderRepository(client *apiclient.Client) *HTTPBuyerOrderRepository {
	return &HTTPBuyerOrderRepository{client: client}
}

// ListMine retrieves GET /orders/me.
func (r *HTTPBuyerOrderRepository) ListMine(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/orders/me"}, &orders)
	if err != nil {
		return nil, wrap("failed to list buyer orders", err)
	}
	return orders, nil
}

// GetByID retrieves GET /orders/:id.
func (r *HTTPBuyerOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/orders/" + escape(id)}, &order)
	if err != nil {
		return nil, wrap("failed to get order "+id, orderNotFound(err, id))
	}
	return &order, nil
}
