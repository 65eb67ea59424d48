package repositories

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"feira/internal/apiclient"
	"feira/internal/models"
)

// CourierOrderRepository covers delivery orders from the courier's side.
type CourierOrderRepository interface {
	ListAvailable(ctx context.Context) ([]models.Order, error)
	ListAccepted(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Accept(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	History(ctx context.Context, page, limit int) (*models.Page[models.Order], error)
	Earnings(ctx context.Context, period models.EarningsPeriod) (*models.Earnings, error)
}

// HTTPCourierOrderRepository implements CourierOrderRepository over
// /delivery-orders.
type HTTPCourierOrderRepository struct {
	client *apiclient.Client
}

func NewHTTPCourierOrderRepository(client *apiclient.Client) *HTTPCourierOrderRepository {
	return &HTTPCourierOrderRepository{client: client}
}

func (r *HTTPCourierOrderRepository) ListAvailable(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/delivery-orders/available"}, &orders)
	if err != nil {
		return nil, wrap("failed to list available orders", err)
	}
	return orders, nil
}

func (r *HTTPCourierOrderRepository) ListAccepted(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/delivery-orders/me/accepted"}, &orders)
	if err != nil {
		return nil, wrap("failed to list accepted orders", err)
	}
	return orders, nil
}

func (r *HTTPCourierOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/delivery-orders/" + escape(id)}, &order)
	if err != nil {
		return nil, wrap("failed to get delivery order "+id, orderNotFound(err, id))
	}
	return &order, nil
}

// Accept claims an unassigned order. Races between couriers are settled by
// the backend; the loser receives an error.
func (r *HTTPCourierOrderRepository) Accept(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/delivery-orders/" + escape(id) + "/accept"}, &order)
	if err != nil {
		return nil, wrap("failed to accept order "+id, orderNotFound(err, id))
	}
	return &order, nil
}

func (r *HTTPCourierOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodPatch,
		Path:   "/delivery-orders/" + escape(id) + "/status",
		Body:   statusBody{Status: status.Wire(false)},
	}, nil)
	return wrap("failed to update delivery order "+id+" status", orderNotFound(err, id))
}

// History returns one page of the courier's finished deliveries. Flags the
// backend omitted or got wrong are recomputed from total.
func (r *HTTPCourierOrderRepository) History(ctx context.Context, page, limit int) (*models.Page[models.Order], error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = models.DefaultPageLimit
	}
	var out models.Page[models.Order]
	err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/delivery-orders/me/history",
		Query:  url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}},
	}, &out)
	if err != nil {
		return nil, wrap("failed to load delivery history", err)
	}
	if out.Pagination.Page == 0 {
		out.Pagination.Page = page
	}
	if out.Pagination.Limit == 0 {
		out.Pagination.Limit = limit
	}
	if out.Data == nil {
		out.Data = []models.Order{}
	}
	out.Pagination = models.NewPagination(out.Pagination.Page, out.Pagination.Limit, out.Pagination.Total)
	return &out, nil
}

func (r *HTTPCourierOrderRepository) Earnings(ctx context.Context, period models.EarningsPeriod) (*models.Earnings, error) {
	var out models.Earnings
	err := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/delivery-orders/me/earnings",
		Query:  url.Values{"period": {string(period)}},
	}, &out)
	if err != nil {
		return nil, wrap("failed to load earnings", err)
	}
	return &out, nil
}
