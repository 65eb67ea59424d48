package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"feira/internal/models"
)

// RoutingKeyStatusChanged is the event published on every status change.
const RoutingKeyStatusChanged = "order.status_changed"

// StatusEvent describes an order status change.
type StatusEvent struct {
	OrderID   string             `json:"orderId"`
	BuyerID   string             `json:"buyerId"`
	From      models.OrderStatus `json:"from"`
	Status    models.OrderStatus `json:"status"`
	ChangedBy models.Role        `json:"changedBy"`
	ChangedAt time.Time          `json:"changedAt"`
}

// Notifier receives status events.
type Notifier interface {
	StatusChanged(ctx context.Context, ev StatusEvent) error
}

// BuildNotification renders the buyer notification for an event.
func BuildNotification(ev StatusEvent) models.Notification {
	return models.Notification{
		UserID: ev.BuyerID,
		Title:  "Pedido " + ev.Status.Label(),
		Body:   fmt.Sprintf("Seu pedido %s agora está: %s.", shortID(ev.OrderID), ev.Status.Label()),
		Type:   models.NotificationOrderStatus,
		Data: map[string]any{
			"orderId": ev.OrderID,
			"status":  string(ev.Status),
		},
		CreatedAt: ev.ChangedAt,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return "#" + id[:8]
	}
	return "#" + id
}

// DirectNotifier writes buyer notifications straight to the store.
type DirectNotifier struct {
	store Store
}

func NewDirectNotifier(store Store) *DirectNotifier {
	return &DirectNotifier{store: store}
}

func (n *DirectNotifier) StatusChanged(ctx context.Context, ev StatusEvent) error {
	note := BuildNotification(ev)
	return n.store.CreateNotification(ctx, &note)
}

// Publisher sends a message to a broker.
type Publisher interface {
	Publish(routingKey string, body []byte) error
}

// BrokerNotifier publishes events for an asynchronous consumer to turn into
// notifications.
type BrokerNotifier struct {
	pub    Publisher
	logger *slog.Logger
}

func NewBrokerNotifier(pub Publisher, logger *slog.Logger) *BrokerNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrokerNotifier{pub: pub, logger: logger}
}

func (n *BrokerNotifier) StatusChanged(_ context.Context, ev StatusEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}
	if err := n.pub.Publish(RoutingKeyStatusChanged, body); err != nil {
		return fmt.Errorf("failed to publish status event for order %s: %w", ev.OrderID, err)
	}
	n.logger.Debug("status event published", "order_id", ev.OrderID, "status", ev.Status)
	return nil
}

// HandleStatusEvent decodes a published event and hands it to next. It is the
// consumer side of BrokerNotifier.
func HandleStatusEvent(ctx context.Context, next Notifier, body []byte) error {
	var ev StatusEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("failed to decode status event: %w", err)
	}
	return next.StatusChanged(ctx, ev)
}
