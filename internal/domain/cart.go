package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cart struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	SessionKey string          `gorm:"size:64;index" json:"-"`
	Anonymous  bool            `gorm:"not null;default:false" json:"anonymous"`
	Items      []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	TotalItems int             `gorm:"not null;default:0" json:"total_items"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_price"`
	Finalized  bool            `gorm:"not null;default:false;index" json:"finalized"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ApplyTotals derives the cart aggregates from the given line items.
func (c *Cart) ApplyTotals(items []CartItem) {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal)
	}
	c.TotalPrice = total
	c.TotalItems = len(items)
}

// CartItem is a line item: one product and its quantity inside a cart.
type CartItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID  *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CartID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_ref" json:"cart_id"`
	ProductType ProductType     `gorm:"type:varchar(20);not null;uniqueIndex:idx_cart_items_ref" json:"product_type"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_ref" json:"product_id"`
	Qty         int             `gorm:"not null;default:1" json:"qty"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (it *CartItem) Ref() ProductRef {
	return ProductRef{Type: it.ProductType, ID: it.ProductID}
}

// Reprice sets LineTotal from the quantity and the product's current price.
func (it *CartItem) Reprice(price decimal.Decimal) {
	it.LineTotal = price.Mul(decimal.NewFromInt(int64(it.Qty)))
}

// NewCartItem builds a single-unit line item for p inside cart.
func NewCartItem(cart *Cart, p Product) *CartItem {
	it := &CartItem{
		ID:          uuid.New(),
		CustomerID:  cart.CustomerID,
		CartID:      cart.ID,
		ProductType: p.Type(),
		ProductID:   p.Base().ID,
		Qty:         1,
	}
	it.Reprice(p.Base().Price)
	return it
}
