package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/eshop/internal/domain"
)

type CartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) *CartRepo { return &CartRepo{db: db} }

func openCartScope(customerID *uuid.UUID, sessionKey string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("finalized = ?", false)
		if customerID != nil {
			return q.Where("customer_id = ?", *customerID)
		}
		return q.Where("customer_id IS NULL AND session_key = ?", sessionKey)
	}
}

// FindOrCreateOpen returns the single open cart for a customer, or for an
// anonymous session when customerID is nil.
func (r *CartRepo) FindOrCreateOpen(ctx context.Context, customerID *uuid.UUID, sessionKey string) (*domain.Cart, error) {
	if customerID == nil && sessionKey == "" {
		return nil, errors.New("cart owner required")
	}
	var out domain.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Scopes(openCartScope(customerID, sessionKey)).First(&out).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		c := domain.Cart{ID: uuid.New(), CustomerID: customerID, TotalPrice: decimal.Zero, CreatedAt: time.Now().UTC()}
		if customerID == nil {
			c.SessionKey = sessionKey
			c.Anonymous = true
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
			return err
		}
		return tx.Scopes(openCartScope(customerID, sessionKey)).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CartRepo) FindOpenByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	var c domain.Cart
	if err := r.db.WithContext(ctx).Scopes(openCartScope(&customerID, "")).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CartRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc").Order("id asc") }).
		First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CartRepo) Items(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	var list []domain.CartItem
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Order("created_at asc").Order("id asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *CartRepo) FindItem(ctx context.Context, cartID uuid.UUID, ref domain.ProductRef) (*domain.CartItem, error) {
	var it domain.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_type = ? AND product_id = ?", cartID, ref.Type, ref.ID).
		First(&it).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// EnsureItem inserts item unless the cart already holds the same product.
// It reports whether a row was created; otherwise item is overwritten with
// the stored line.
func (r *CartRepo) EnsureItem(ctx context.Context, item *domain.CartItem) (bool, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(item)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			created = true
			return nil
		}
		var existing domain.CartItem
		if err := tx.Where("cart_id = ? AND product_type = ? AND product_id = ?", item.CartID, item.ProductType, item.ProductID).
			First(&existing).Error; err != nil {
			return err
		}
		*item = existing
		return nil
	})
	return created, err
}

func (r *CartRepo) SaveItem(ctx context.Context, item *domain.CartItem) error {
	return r.db.WithContext(ctx).Model(&domain.CartItem{}).Where("id = ?", item.ID).
		Updates(map[string]any{"qty": item.Qty, "line_total": item.LineTotal, "updated_at": time.Now().UTC()}).Error
}

func (r *CartRepo) DeleteItem(ctx context.Context, item *domain.CartItem) error {
	res := r.db.WithContext(ctx).Delete(&domain.CartItem{}, "id = ?", item.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepo) SaveTotals(ctx context.Context, c *domain.Cart) error {
	return r.db.WithContext(ctx).Model(&domain.Cart{}).Where("id = ?", c.ID).
		Updates(map[string]any{"total_items": c.TotalItems, "total_price": c.TotalPrice, "updated_at": time.Now().UTC()}).Error
}
