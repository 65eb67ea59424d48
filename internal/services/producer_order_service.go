package services

import (
	"context"

	"feira/internal/models"
	"feira/internal/repositories"
)

// ProducerOrderService backs the producer's order management screens.
type ProducerOrderService struct {
	repo repositories.ProducerOrderRepository
}

func NewProducerOrderService(repo repositories.ProducerOrderRepository) *ProducerOrderService {
	return &ProducerOrderService{repo: repo}
}

func (s *ProducerOrderService) Orders(ctx context.Context) ([]OrderView, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return buildViews(orders, nil), nil
}

func (s *ProducerOrderService) Details(ctx context.Context, id string) (*OrderView, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := BuildOrderView(*order, nil)
	return &v, nil
}

// Advance requests a status change. The backend decides whether it is legal;
// callers re-fetch to observe the result.
func (s *ProducerOrderService) Advance(ctx context.Context, id string, to models.OrderStatus) error {
	return s.repo.UpdateStatus(ctx, id, to)
}

// Cancel requests cancellation of the order.
func (s *ProducerOrderService) Cancel(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id, models.OrderStatusCanceled)
}

// NextStatus is the status the producer's "advance" button offers. Producers
// stop at shipped; delivery is the courier's step.
func (s *ProducerOrderService) NextStatus(current models.OrderStatus) (models.OrderStatus, bool) {
	next, ok := models.NextStatus(current)
	if !ok || next == models.OrderStatusDelivered {
		return "", false
	}
	return next, true
}
