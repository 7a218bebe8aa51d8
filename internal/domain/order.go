package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusReady      OrderStatus = "is_ready"
	OrderStatusCompleted  OrderStatus = "completed"
)

var orderFlow = []OrderStatus{OrderStatusNew, OrderStatusInProgress, OrderStatusReady, OrderStatusCompleted}

// NextStatus returns the status that follows s in the fulfilment workflow.
func NextStatus(s OrderStatus) (OrderStatus, bool) {
	for i, st := range orderFlow {
		if st == s && i+1 < len(orderFlow) {
			return orderFlow[i+1], true
		}
	}
	return "", false
}

type BuyingType string

const (
	BuyingTypeSelf     BuyingType = "self"
	BuyingTypeDelivery BuyingType = "delivery"
)

type Order struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID   `gorm:"type:uuid;index;not null" json:"customer_id"`
	FirstName  string      `gorm:"size:255;not null" json:"first_name"`
	LastName   string      `gorm:"size:255;not null" json:"last_name"`
	Phone      string      `gorm:"size:20;not null" json:"phone"`
	CartID     *uuid.UUID  `gorm:"type:uuid;index" json:"cart_id,omitempty"`
	Address    string      `gorm:"size:1024" json:"address,omitempty"`
	Status     OrderStatus `gorm:"type:varchar(30);index;not null" json:"status"`
	BuyingType BuyingType  `gorm:"type:varchar(30);not null" json:"buying_type"`
	Comment    string      `gorm:"type:text" json:"comment,omitempty"`
	OrderDate  time.Time   `gorm:"not null" json:"order_date"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OrderForm is the checkout input as submitted by the visitor.
type OrderForm struct {
	FirstName  string `form:"first_name" validate:"required,max=255"`
	LastName   string `form:"last_name" validate:"required,max=255"`
	Phone      string `form:"phone" validate:"required,max=20"`
	Address    string `form:"address" validate:"required,max=1024"`
	BuyingType string `form:"buying_type" validate:"required,oneof=self delivery"`
	OrderDate  string `form:"order_date" validate:"required,datetime=2006-01-02"`
	Comment    string `form:"comment" validate:"omitempty,max=2000"`
}

// OrderPlaced is published once an order has been committed.
type OrderPlaced struct {
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	CartID     uuid.UUID `json:"cart_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	BuyingType string    `json:"buying_type"`
	Total      string    `json:"total"`
	PlacedAt   time.Time `json:"placed_at"`
}
