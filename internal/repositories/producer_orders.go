package repositories

import (
	"context"
	"net/http"

	"feira/internal/apiclient"
	"feira/internal/models"
)

// ProducerOrderRepository covers the orders that contain the producer's items.
type ProducerOrderRepository interface {
	List(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// HTTPProducerOrderRepository implements ProducerOrderRepository over
// /producers/me/orders.
type HTTPProducerOrderRepository struct {
	client *apiclient.Client
}

func NewHTTPProducerOrderRepository(client *apiclient.Client) *HTTPProducerOrderRepository {
	return &HTTPProducerOrderRepository{client: client}
}

func (r *HTTPProducerOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/producers/me/orders"}, &orders)
	if err != nil {
		return nil, wrap("failed to list producer orders", err)
	}
	return orders, nil
}

func (r *HTTPProducerOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/producers/me/orders/" + escape(id)}, &order)
	if err != nil {
		return nil, wrap("failed to get producer order "+id, orderNotFound(err, id))
	}
	return &order, nil
}

// UpdateStatus asks the backend to move the order to status. The producer
// endpoint takes the status uppercased; legality is decided by the backend.
func (r *HTTPProducerOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/producers/me/orders/" + escape(id) + "/status",
		Body:   statusBody{Status: status.Wire(true)},
	}, nil)
	return wrap("failed to update order "+id+" status", orderNotFound(err, id))
}

type statusBody struct {
	Status string `json:"status"`
}
