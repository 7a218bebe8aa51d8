package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/eshop/internal/domain"
)

// MaxQuantity caps a single line item.
const MaxQuantity = 9999

func qtyRangeError() error {
	return domain.NewValidationError("qty", fmt.Sprintf("must be between 1 and %d", MaxQuantity))
}

type CartUC struct {
	Catalog   *CatalogUC
	Customers domain.CustomerRepo
	Carts     domain.CartRepo
}

// CartLine is a line item joined with the product it points at.
type CartLine struct {
	Type      domain.ProductType `json:"type"`
	Slug      string             `json:"slug"`
	Title     string             `json:"title"`
	URL       string             `json:"url"`
	Image     string             `json:"image"`
	Price     decimal.Decimal    `json:"price"`
	Qty       int                `json:"qty"`
	LineTotal decimal.Decimal    `json:"line_total"`
}

// CartView is the cart as the storefront renders it.
type CartView struct {
	ID         uuid.UUID       `json:"id"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []CartLine      `json:"items"`
}

// Resolve returns the visitor's open cart, creating the customer and the cart
// when they do not exist yet. Anonymous visitors get one cart per session.
func (uc *CartUC) Resolve(ctx context.Context, v domain.Visitor) (*domain.Cart, error) {
	if !v.Authenticated() {
		if v.SessionKey == "" {
			return nil, fmt.Errorf("%w: anonymous visitor without session", domain.ErrAuthRequired)
		}
		return uc.Carts.FindOrCreateOpen(ctx, nil, v.SessionKey)
	}
	cust, err := uc.Customers.FindOrCreate(ctx, v.UserID)
	if err != nil {
		return nil, fmt.Errorf("customer for user %s: %w", v.UserID, err)
	}
	return uc.Carts.FindOrCreateOpen(ctx, &cust.ID, "")
}

// Recalculate derives the cart totals from its current line items and stores
// them.
func (uc *CartUC) Recalculate(ctx context.Context, cart *domain.Cart) error {
	items, err := uc.Carts.Items(ctx, cart.ID)
	if err != nil {
		return err
	}
	cart.ApplyTotals(items)
	cart.Items = items
	return uc.Carts.SaveTotals(ctx, cart)
}

// Add puts a single unit of the product in the cart. Adding a product that is
// already there leaves its quantity alone.
func (uc *CartUC) Add(ctx context.Context, cart *domain.Cart, tag domain.ProductType, slug string) error {
	if cart.Finalized {
		return domain.ErrCartClosed
	}
	p, err := uc.Catalog.ProductBySlug(ctx, tag, slug)
	if err != nil {
		return err
	}
	if _, err := uc.Carts.EnsureItem(ctx, domain.NewCartItem(cart, p)); err != nil {
		return err
	}
	return uc.Recalculate(ctx, cart)
}

func (uc *CartUC) Remove(ctx context.Context, cart *domain.Cart, tag domain.ProductType, slug string) error {
	if cart.Finalized {
		return domain.ErrCartClosed
	}
	_, it, err := uc.item(ctx, cart, tag, slug)
	if err != nil {
		return err
	}
	if err := uc.Carts.DeleteItem(ctx, it); err != nil {
		return err
	}
	return uc.Recalculate(ctx, cart)
}

// ChangeQty sets the quantity of a line item and reprices it at the current
// product price.
func (uc *CartUC) ChangeQty(ctx context.Context, cart *domain.Cart, tag domain.ProductType, slug string, qty int) error {
	if qty < 1 || qty > MaxQuantity {
		return qtyRangeError()
	}
	if cart.Finalized {
		return domain.ErrCartClosed
	}
	p, it, err := uc.item(ctx, cart, tag, slug)
	if err != nil {
		return err
	}
	it.Qty = qty
	it.Reprice(p.Base().Price)
	if err := uc.Carts.SaveItem(ctx, it); err != nil {
		return err
	}
	return uc.Recalculate(ctx, cart)
}

func (uc *CartUC) item(ctx context.Context, cart *domain.Cart, tag domain.ProductType, slug string) (domain.Product, *domain.CartItem, error) {
	p, err := uc.Catalog.ProductBySlug(ctx, tag, slug)
	if err != nil {
		return nil, nil, err
	}
	it, err := uc.Carts.FindItem(ctx, cart.ID, domain.RefOf(p))
	if err != nil {
		return nil, nil, fmt.Errorf("line item %s/%s: %w", tag, slug, err)
	}
	return p, it, nil
}

// Snapshot joins the stored cart with its products.
func (uc *CartUC) Snapshot(ctx context.Context, cartID uuid.UUID) (*CartView, error) {
	c, err := uc.Carts.FindByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	view := &CartView{ID: c.ID, TotalItems: c.TotalItems, TotalPrice: c.TotalPrice, Items: make([]CartLine, 0, len(c.Items))}
	for _, it := range c.Items {
		p, err := uc.Catalog.ProductByRef(ctx, it.Ref())
		if err != nil {
			return nil, fmt.Errorf("product %s/%s: %w", it.ProductType, it.ProductID, err)
		}
		b := p.Base()
		view.Items = append(view.Items, CartLine{
			Type:      p.Type(),
			Slug:      b.Slug,
			Title:     b.Title,
			URL:       domain.ProductURL(p),
			Image:     b.Image,
			Price:     b.Price,
			Qty:       it.Qty,
			LineTotal: it.LineTotal,
		})
	}
	return view, nil
}

// ParseQuantity reads a quantity from form input.
func ParseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > MaxQuantity {
		return 0, qtyRangeError()
	}
	return n, nil
}
