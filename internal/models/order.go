package models

import (
	"encoding/json"
	"strings"
	"time"
)

// OrderStatus is the canonical, lowercase form of an order's fulfillment status.
// Backends send it in mixed case; it is normalized when decoded.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCanceled   OrderStatus = "canceled"
)

const (
	unknownStatusLabel = "Status desconhecido"
	unknownStatusColor = "#757575"
)

var statusLabels = map[OrderStatus]string{
	OrderStatusPending:    "Pendente",
	OrderStatusProcessing: "Em preparação",
	OrderStatusShipped:    "Em rota de entrega",
	OrderStatusDelivered:  "Entregue",
	OrderStatusCanceled:   "Cancelado",
}

var statusColors = map[OrderStatus]string{
	OrderStatusPending:    "#FFA000",
	OrderStatusProcessing: "#1976D2",
	OrderStatusShipped:    "#7B1FA2",
	OrderStatusDelivered:  "#388E3C",
	OrderStatusCanceled:   "#D32F2F",
}

// fulfillment is the forward sequence; canceled sits outside it.
var fulfillment = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// NormalizeStatus maps a raw backend status string to its canonical form.
// Unrecognized values are kept (lowercased) so they can still be displayed.
func NormalizeStatus(raw string) OrderStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "cancelled" {
		return OrderStatusCanceled
	}
	return OrderStatus(s)
}

// IsKnown reports whether s is one of the five canonical statuses.
func (s OrderStatus) IsKnown() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the Portuguese display label. Never empty.
func (s OrderStatus) Label() string {
	if label, ok := statusLabels[NormalizeStatus(string(s))]; ok {
		return label
	}
	return unknownStatusLabel
}

// Color returns the hex badge color. Never empty.
func (s OrderStatus) Color() string {
	if color, ok := statusColors[NormalizeStatus(string(s))]; ok {
		return color
	}
	return unknownStatusColor
}

// Wire encodes the status for an endpoint. Some endpoints expect uppercase.
func (s OrderStatus) Wire(upper bool) string {
	if upper {
		return strings.ToUpper(string(s))
	}
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NormalizeStatus(raw)
	return nil
}

func rank(s OrderStatus) int {
	for i, st := range fulfillment {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransition reports whether an order may move from one status to another:
// strictly forward through pending, processing, shipped, delivered, or to
// canceled from any state before delivered.
func CanTransition(from, to OrderStatus) bool {
	if from.IsTerminal() || !from.IsKnown() || !to.IsKnown() {
		return false
	}
	if to == OrderStatusCanceled {
		return true
	}
	return rank(to) == rank(from)+1
}

// NextStatus returns the status that follows s in the fulfillment sequence.
func NextStatus(s OrderStatus) (OrderStatus, bool) {
	r := rank(s)
	if r < 0 || r+1 >= len(fulfillment) {
		return "", false
	}
	return fulfillment[r+1], true
}

// OrderItem represents a single line within an order.
type OrderItem struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string  `json:"orderId" gorm:"index;type:varchar(36)"`
	ProductID   string  `json:"productId" gorm:"type:varchar(36)"`
	ProductName string  `json:"productName"`
	ProducerID  string  `json:"producerId" gorm:"index;type:varchar(36)"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
	Reviewed    bool    `json:"reviewed"`
}

// LineTotal returns the subtotal, computing it when the backend left it out.
func (i OrderItem) LineTotal() float64 {
	if i.Subtotal != 0 {
		return i.Subtotal
	}
	return float64(i.Quantity) * i.UnitPrice
}

// Order represents a buyer's purchase moving through fulfillment.
type Order struct {
	ID                  string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID             string      `json:"buyerId" gorm:"index;type:varchar(36)"`
	CourierID           *string     `json:"courierId,omitempty" gorm:"index;type:varchar(36)"`
	CustomerName        string      `json:"customerName"`
	CustomerPhone       string      `json:"customerPhone"`
	ShippingAddress     string      `json:"shippingAddress"`
	TotalPrice          float64     `json:"totalPrice"`
	TrackingCode        string      `json:"trackingCode"`
	PaymentMethod       string      `json:"paymentMethod"`
	Items               []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	DeliveryFee         *float64    `json:"deliveryFee,omitempty"`
	SpecialInstructions string      `json:"specialInstructions,omitempty"`
	Status              OrderStatus `json:"status" gorm:"index;type:varchar(20)"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
	DeliveredAt         *time.Time  `json:"deliveredAt,omitempty"`
}

// Item returns the line with the given ID.
func (o *Order) Item(id string) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// HasProducer reports whether any line of the order belongs to the producer.
func (o *Order) HasProducer(producerID string) bool {
	for _, it := range o.Items {
		if it.ProducerID == producerID {
			return true
		}
	}
	return false
}

// AssignedTo reports whether the order was accepted by the courier.
func (o *Order) AssignedTo(courierID string) bool {
	return o.CourierID != nil && *o.CourierID == courierID
}
