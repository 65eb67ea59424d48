package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feira/internal/apperr"
	"feira/internal/models"
)

// MaxPageLimit caps the page size of history listings.
const MaxPageLimit = 100

// producerMoves and courierMoves list, per target status, the statuses each
// role may move an order out of.
var (
	producerMoves = map[models.OrderStatus][]models.OrderStatus{
		models.OrderStatusProcessing: {models.OrderStatusPending},
		models.OrderStatusShipped:    {models.OrderStatusProcessing},
		models.OrderStatusCanceled:   {models.OrderStatusPending, models.OrderStatusProcessing},
	}
	courierMoves = map[models.OrderStatus][]models.OrderStatus{
		models.OrderStatusShipped:   {models.OrderStatusProcessing},
		models.OrderStatusDelivered: {models.OrderStatusShipped},
	}
)

func allowed(moves map[models.OrderStatus][]models.OrderStatus, from, to models.OrderStatus) bool {
	for _, s := range moves[to] {
		if s == from {
			return true
		}
	}
	return false
}

// OrderService applies role scoping and transition rules to orders.
type OrderService struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrderService creates a new OrderService. notifier may be nil.
func NewOrderService(store Store, notifier Notifier, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{store: store, notifier: notifier, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *OrderService) BuyerOrders(ctx context.Context, buyerID string) ([]models.Order, error) {
	return s.store.OrdersByBuyer(ctx, buyerID)
}

// BuyerOrder returns an order the buyer placed. Other buyers' orders are
// reported as not found.
func (s *OrderService) BuyerOrder(ctx context.Context, buyerID, id string) (*models.Order, error) {
	order, err := s.store.OrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, &apperr.NotFoundError{Resource: "order", ID: id}
	}
	return order, nil
}

func (s *OrderService) ProducerOrders(ctx context.Context, producerID string) ([]models.Order, error) {
	return s.store.OrdersByProducer(ctx, producerID)
}

func (s *OrderService) ProducerOrder(ctx context.Context, producerID, id string) (*models.Order, error) {
	order, err := s.store.OrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.HasProducer(producerID) {
		return nil, &apperr.NotFoundError{Resource: "order", ID: id}
	}
	return order, nil
}

// ProducerUpdateStatus lets a producer confirm, dispatch or cancel an order.
func (s *OrderService) ProducerUpdateStatus(ctx context.Context, producerID, id string, to models.OrderStatus) (*models.Order, error) {
	order, err := s.ProducerOrder(ctx, producerID, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(order.Status, to); err != nil {
		return nil, err
	}
	if !allowed(producerMoves, order.Status, to) {
		return nil, forbidden("o produtor não pode mudar este pedido para " + to.Label())
	}
	return s.transition(ctx, order, to, models.RoleProducer)
}

func (s *OrderService) AvailableOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.AvailableOrders(ctx)
}

func (s *OrderService) AcceptedOrders(ctx context.Context, courierID string) ([]models.Order, error) {
	return s.store.ActiveOrdersByCourier(ctx, courierID)
}

func available(o *models.Order) bool {
	return o.CourierID == nil && (o.Status == models.OrderStatusProcessing || o.Status == models.OrderStatusShipped)
}

// CourierOrder returns an order the courier may see: one still open for
// acceptance or one assigned to them.
func (s *OrderService) CourierOrder(ctx context.Context, courierID, id string) (*models.Order, error) {
	order, err := s.store.OrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !available(order) && !order.AssignedTo(courierID) {
		return nil, &apperr.NotFoundError{Resource: "order", ID: id}
	}
	return order, nil
}

// Accept assigns the order to the courier. When two couriers race, exactly
// one succeeds; the other gets a conflict.
func (s *OrderService) Accept(ctx context.Context, courierID, id string) (*models.Order, error) {
	order, err := s.store.OrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.AssignedTo(courierID) {
		return order, nil
	}
	if !available(order) {
		return nil, conflict("pedido não está disponível para entrega")
	}
	if err := s.store.AssignCourier(ctx, id, courierID); err != nil {
		return nil, err
	}
	s.logger.Info("order accepted", "order_id", id, "courier_id", courierID)
	return s.store.OrderByID(ctx, id)
}

// CourierUpdateStatus lets the assigned courier pick up or deliver an order.
func (s *OrderService) CourierUpdateStatus(ctx context.Context, courierID, id string, to models.OrderStatus) (*models.Order, error) {
	order, err := s.store.OrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.AssignedTo(courierID) {
		return nil, &apperr.NotFoundError{Resource: "order", ID: id}
	}
	if err := checkTransition(order.Status, to); err != nil {
		return nil, err
	}
	if !allowed(courierMoves, order.Status, to) {
		return nil, forbidden("o entregador não pode mudar este pedido para " + to.Label())
	}
	return s.transition(ctx, order, to, models.RoleCourier)
}

func checkTransition(from, to models.OrderStatus) error {
	if !to.IsKnown() {
		return apperr.NewValidationError("status", fmt.Sprintf("status desconhecido %q", to))
	}
	if !models.CanTransition(from, to) {
		return invalidTransition(fmt.Sprintf("não é possível mudar de %s para %s", from.Label(), to.Label()))
	}
	return nil
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, to models.OrderStatus, by models.Role) (*models.Order, error) {
	at := s.now()
	if err := s.store.SetStatus(ctx, order.ID, order.Status, to, at); err != nil {
		return nil, err
	}
	s.logger.Info("order status changed", "order_id", order.ID, "from", order.Status, "to", to, "by", by)

	if s.notifier != nil {
		ev := StatusEvent{OrderID: order.ID, BuyerID: order.BuyerID, From: order.Status, Status: to, ChangedBy: by, ChangedAt: at}
		if err := s.notifier.StatusChanged(ctx, ev); err != nil {
			s.logger.Warn("failed to notify status change", "order_id", order.ID, "error", err)
		}
	}
	return s.store.OrderByID(ctx, order.ID)
}

// History returns one page of the courier's finished deliveries.
func (s *OrderService) History(ctx context.Context, courierID string, page, limit int) (*models.Page[models.Order], error) {
	if page < 0 || limit < 0 || limit > MaxPageLimit {
		return nil, apperr.NewValidationError("limit", fmt.Sprintf("page must be >= 1 and limit between 1 and %d", MaxPageLimit))
	}
	p := models.NewPagination(page, limit, 0)
	orders, total, err := s.store.CourierHistory(ctx, courierID, p.Offset(), p.Limit)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &models.Page[models.Order]{Data: orders, Pagination: models.NewPagination(p.Page, p.Limit, int(total))}, nil
}

// Earnings sums the courier's delivery fees over the period ending now.
func (s *OrderService) Earnings(ctx context.Context, courierID string, period models.EarningsPeriod) (*models.Earnings, error) {
	now := s.now()
	var since time.Time
	switch period {
	case models.PeriodToday:
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case models.PeriodMonth:
		since = now.AddDate(0, -1, 0)
	default:
		period = models.PeriodWeek
		since = now.AddDate(0, 0, -7)
	}

	total, count, err := s.store.CourierEarnings(ctx, courierID, since)
	if err != nil {
		return nil, err
	}
	e := &models.Earnings{Period: period, Total: total, Deliveries: count}
	if count > 0 {
		e.Average = total / float64(count)
	}
	return e, nil
}
