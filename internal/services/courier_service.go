package services

import (
	"context"
	"log/slog"
	"sync"

	"feira/internal/apperr"
	"feira/internal/estimate"
	"feira/internal/models"
	"feira/internal/repositories"
)

// MsgAcceptFailed is shown when a courier could not claim an order.
const MsgAcceptFailed = "Não foi possível aceitar o pedido"

// CourierService backs the delivery screens and keeps the courier's local
// "my orders" list. The list only changes after the backend confirmed.
type CourierService struct {
	repo   repositories.CourierOrderRepository
	est    estimate.Strategy
	logger *slog.Logger

	mu   sync.RWMutex
	mine []models.Order
}

// NewCourierService creates a new CourierService.
func NewCourierService(repo repositories.CourierOrderRepository, est estimate.Strategy, logger *slog.Logger) *CourierService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourierService{repo: repo, est: est, logger: logger}
}

// Available lists orders no courier has accepted yet.
func (s *CourierService) Available(ctx context.Context) ([]OrderView, error) {
	orders, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	return buildViews(orders, s.est), nil
}

// Accepted fetches the courier's accepted orders and replaces the local list.
func (s *CourierService) Accepted(ctx context.Context) ([]OrderView, error) {
	orders, err := s.repo.ListAccepted(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.mine = append([]models.Order(nil), orders...)
	s.mu.Unlock()
	return buildViews(orders, s.est), nil
}

// Details retrieves one delivery order.
func (s *CourierService) Details(ctx context.Context, id string) (*OrderView, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := BuildOrderView(*order, s.est)
	return &v, nil
}

// Accept claims the order. On any rejection the local list is left untouched
// and the error carries MsgAcceptFailed, except for session errors.
func (s *CourierService) Accept(ctx context.Context, id string) (*OrderView, error) {
	order, err := s.repo.Accept(ctx, id)
	if err != nil {
		s.logger.Warn("accept rejected", "order_id", id, "error", err)
		if apperr.IsAuth(err) {
			return nil, err
		}
		return nil, apperr.WithMessage(err, MsgAcceptFailed)
	}

	s.mu.Lock()
	s.mine = upsertOrder(s.mine, *order)
	s.mu.Unlock()

	v := BuildOrderView(*order, s.est)
	return &v, nil
}

// UpdateStatus requests a status change for an accepted order. Once the
// backend accepts a terminal status the order leaves the local list.
func (s *CourierService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	if status.IsTerminal() {
		s.mu.Lock()
		s.mine = removeOrder(s.mine, id)
		s.mu.Unlock()
	}
	return nil
}

// MyOrders returns a copy of the local accepted-orders list.
func (s *CourierService) MyOrders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order(nil), s.mine...)
}

// History returns one page of finished deliveries.
func (s *CourierService) History(ctx context.Context, page, limit int) (*models.Page[models.Order], error) {
	return s.repo.History(ctx, page, limit)
}

// Earnings returns the courier's earnings for a period name.
func (s *CourierService) Earnings(ctx context.Context, period string) (*models.Earnings, error) {
	p, err := models.ParseEarningsPeriod(period)
	if err != nil {
		return nil, apperr.NewValidationError("period", err.Error())
	}
	return s.repo.Earnings(ctx, p)
}

func upsertOrder(list []models.Order, o models.Order) []models.Order {
	for i := range list {
		if list[i].ID == o.ID {
			list[i] = o
			return list
		}
	}
	return append(list, o)
}

func removeOrder(list []models.Order, id string) []models.Order {
	out := list[:0]
	for _, o := range list {
		if o.ID != id {
			out = append(out, o)
		}
	}
	return out
}
