package models

import "time"

// Review is a buyer's rating of a product bought in a delivered order.
type Review struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID   string    `json:"productId" gorm:"index;type:varchar(36)"`
	OrderItemID *string   `json:"orderItemId,omitempty" gorm:"uniqueIndex;type:varchar(36)"`
	UserID      string    `json:"userId" gorm:"index;type:varchar(36)"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ReviewInput is the payload of a review submission.
type ReviewInput struct {
	ProductID   string  `json:"productId" validate:"required"`
	Rating      int     `json:"rating" validate:"required,min=1,max=5"`
	Comment     string  `json:"comment,omitempty" validate:"omitempty,max=1000"`
	OrderItemID *string `json:"orderItemId,omitempty" validate:"omitempty,min=1"`
}
