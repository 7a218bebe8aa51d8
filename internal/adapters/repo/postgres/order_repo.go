package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/eshop/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

// Place persists o and finalizes the cart it was made from in one
// transaction. Nothing is written when the cart is empty; any other failure
// rolls everything back and is reported as domain.ErrTransactionFailure.
func (r *OrderRepo) Place(ctx context.Context, o *domain.Order, cartID uuid.UUID) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusNew
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items int64
		if err := tx.Model(&domain.CartItem{}).Where("cart_id = ?", cartID).Count(&items).Error; err != nil {
			return err
		}
		if items == 0 {
			return domain.NewValidationError("cart", "cart is empty")
		}

		o.CartID = nil
		if err := tx.Create(o).Error; err != nil {
			return err
		}

		res := tx.Model(&domain.Cart{}).
			Where("id = ? AND customer_id = ? AND finalized = ?", cartID, o.CustomerID, false).
			Updates(map[string]any{"finalized": true, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("cart %s is not open for customer %s", cartID, o.CustomerID)
		}

		if err := tx.Model(&domain.Order{}).Where("id = ?", o.ID).Update("cart_id", cartID).Error; err != nil {
			return err
		}
		o.CartID = &cartID
		return nil
	})
	if err != nil {
		o.CartID = nil
		if errors.Is(err, domain.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrTransactionFailure, err)
	}
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	var list []domain.Order
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	var list []domain.Order
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateStatus moves an order from one status to the next; it fails with
// domain.ErrNotFound when the order is not currently in from.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
