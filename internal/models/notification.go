package models

import "time"

// Notification types emitted by the backend.
const (
	NotificationOrderStatus = "order_status"
	NotificationPromotion   = "promotion"
)

// Notification is an in-app message, usually about an order.
type Notification struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string         `json:"userId" gorm:"index;type:varchar(36)"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Read      bool           `json:"read"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty" gorm:"serializer:json"`
	CreatedAt time.Time      `json:"createdAt"`
}

// OrderID returns the order the notification refers to, if any.
func (n Notification) OrderID() (string, bool) {
	if n.Data == nil {
		return "", false
	}
	id, ok := n.Data["orderId"].(string)
	return id, ok && id != ""
}

// DeviceToken is a push token registered for a user.
type DeviceToken struct {
	Token     string    `json:"token" gorm:"primaryKey;type:varchar(255)" validate:"required,min=8"`
	UserID    string    `json:"userId" gorm:"index;type:varchar(36)"`
	Platform  string    `json:"platform" validate:"omitempty,oneof=android ios web"`
	UpdatedAt time.Time `json:"updatedAt"`
}
