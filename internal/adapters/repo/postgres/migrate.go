package postgres

import (
	"gorm.io/gorm"

	"github.com/phenrril/eshop/internal/domain"
)

// Migrate creates the schema. The partial unique indexes are what keep a
// single open cart per customer and per anonymous session.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Category{}, &domain.Dress{}, &domain.Skirt{},
		&domain.User{}, &domain.Customer{},
		&domain.Cart{}, &domain.CartItem{}, &domain.Order{},
	); err != nil {
		return err
	}
	stmts := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_open_customer ON carts (customer_id) WHERE finalized = false AND customer_id IS NOT NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_open_session ON carts (session_key) WHERE finalized = false AND session_key <> ''",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at)",
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}
