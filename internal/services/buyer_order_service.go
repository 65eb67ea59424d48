package services

import (
	"context"

	"feira/internal/estimate"
	"feira/internal/models"
	"feira/internal/repositories"
)

// BuyerOrderService backs the buyer's order screens.
type BuyerOrderService struct {
	repo repositories.BuyerOrderRepository
	est  estimate.Strategy
}

// NewBuyerOrderService creates a new BuyerOrderService.
func NewBuyerOrderService(repo repositories.BuyerOrderRepository, est estimate.Strategy) *BuyerOrderService {
	return &BuyerOrderService{repo: repo, est: est}
}

// MyOrders retrieves the buyer's orders as views.
func (s *BuyerOrderService) MyOrders(ctx context.Context) ([]OrderView, error) {
	orders, err := s.repo.ListMine(ctx)
	if err != nil {
		return nil, err
	}
	return buildViews(orders, s.est), nil
}

// Details retrieves one order. A missing order yields *apperr.NotFoundError.
func (s *BuyerOrderService) Details(ctx context.Context, id string) (*OrderView, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := BuildOrderView(*order, s.est)
	return &v, nil
}

// ReviewableItems returns the lines the buyer may still review.
func (s *BuyerOrderService) ReviewableItems(order models.Order) []models.OrderItem {
	out := make([]models.OrderItem, 0)
	for _, it := range order.Items {
		if CanReview(order, it) {
			out = append(out, it)
		}
	}
	return out
}
