package domain

import (
	"context"
	"io"

	"github.com/google/uuid"
)

type CategoryRepo interface {
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	Save(ctx context.Context, c *Category) error
}

// ProductRepo stores a single product variant.
type ProductRepo interface {
	Type() ProductType
	FindBySlug(ctx context.Context, slug string) (Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (Product, error)
	Latest(ctx context.Context, limit int) ([]Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Product, error)
	CountByCategory(ctx context.Context) (map[uuid.UUID]int64, error)
	Save(ctx context.Context, p Product) error
}

type UserRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) error
}

type CustomerRepo interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*Customer, error)
	FindOrCreate(ctx context.Context, userID uuid.UUID) (*Customer, error)
}

type CartRepo interface {
	FindOrCreateOpen(ctx context.Context, customerID *uuid.UUID, sessionKey string) (*Cart, error)
	FindOpenByCustomer(ctx context.Context, customerID uuid.UUID) (*Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)
	Items(ctx context.Context, cartID uuid.UUID) ([]CartItem, error)
	FindItem(ctx context.Context, cartID uuid.UUID, ref ProductRef) (*CartItem, error)
	EnsureItem(ctx context.Context, item *CartItem) (bool, error)
	SaveItem(ctx context.Context, item *CartItem) error
	DeleteItem(ctx context.Context, item *CartItem) error
	SaveTotals(ctx context.Context, c *Cart) error
}

type OrderRepo interface {
	Place(ctx context.Context, o *Order, cartID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus) error
}

type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

type OrderNotifier interface {
	OrderPlaced(ctx context.Context, ev OrderPlaced) error
}
