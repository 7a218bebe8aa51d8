package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/eshop/internal/domain"
)

type OrderUC struct {
	Customers domain.CustomerRepo
	Carts     domain.CartRepo
	Orders    domain.OrderRepo
	Notifier  domain.OrderNotifier

	validate *validator.Validate
}

func NewOrderUC(customers domain.CustomerRepo, carts domain.CartRepo, orders domain.OrderRepo, notifier domain.OrderNotifier) *OrderUC {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &OrderUC{Customers: customers, Carts: carts, Orders: orders, Notifier: notifier, validate: v}
}

// ValidateForm trims the form in place and reports every invalid field.
func (uc *OrderUC) ValidateForm(f *domain.OrderForm) error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.BuyingType = strings.TrimSpace(f.BuyingType)
	f.OrderDate = strings.TrimSpace(f.OrderDate)
	f.Comment = strings.TrimSpace(f.Comment)

	err := uc.validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{Fields: map[string]string{}}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return "at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must be a date in " + fe.Param() + " format"
	}
	return "invalid"
}

// PlaceOrder turns the visitor's open cart into an order. An invalid form or
// an anonymous visitor is rejected before anything is written.
func (uc *OrderUC) PlaceOrder(ctx context.Context, v domain.Visitor, f domain.OrderForm) (*domain.Order, error) {
	if err := uc.ValidateForm(&f); err != nil {
		return nil, err
	}
	if !v.Authenticated() {
		return nil, domain.ErrAuthRequired
	}
	cust, err := uc.Customers.FindByUser(ctx, v.UserID)
	if err != nil {
		return nil, fmt.Errorf("customer for user %s: %w", v.UserID, err)
	}
	cart, err := uc.Carts.FindOpenByCustomer(ctx, cust.ID)
	if err != nil {
		return nil, fmt.Errorf("open cart for customer %s: %w", cust.ID, err)
	}
	date, _ := time.Parse(time.DateOnly, f.OrderDate)

	o := &domain.Order{
		ID:         uuid.New(),
		CustomerID: cust.ID,
		FirstName:  f.FirstName,
		LastName:   f.LastName,
		Phone:      f.Phone,
		Address:    f.Address,
		Status:     domain.OrderStatusNew,
		BuyingType: domain.BuyingType(f.BuyingType),
		Comment:    f.Comment,
		OrderDate:  date,
	}
	if err := uc.Orders.Place(ctx, o, cart.ID); err != nil {
		return nil, err
	}
	cart.Finalized = true
	log.Info().Str("order_id", o.ID.String()).Str("cart_id", cart.ID.String()).Msg("order placed")

	if uc.Notifier != nil {
		ev := domain.OrderPlaced{
			OrderID:    o.ID,
			CustomerID: cust.ID,
			CartID:     cart.ID,
			FirstName:  o.FirstName,
			LastName:   o.LastName,
			BuyingType: string(o.BuyingType),
			Total:      cart.TotalPrice.StringFixed(2),
			PlacedAt:   time.Now().UTC(),
		}
		if err := uc.Notifier.OrderPlaced(ctx, ev); err != nil {
			log.Error().Err(err).Str("order_id", o.ID.String()).Msg("notify order placed")
		}
	}
	return o, nil
}

// AdvanceStatus moves an order one step along new, in_progress, is_ready,
// completed. Skipping or going back is rejected.
func (uc *OrderUC) AdvanceStatus(ctx context.Context, id uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, ok := domain.NextStatus(o.Status)
	if !ok || next != to {
		return nil, domain.NewValidationError("status", fmt.Sprintf("cannot move from %s to %s", o.Status, to))
	}
	if err := uc.Orders.UpdateStatus(ctx, id, o.Status, to); err != nil {
		return nil, err
	}
	o.Status = to
	return o, nil
}

func (uc *OrderUC) List(ctx context.Context) ([]domain.Order, error) {
	return uc.Orders.List(ctx)
}

// CustomerOrders lists the orders placed by an authenticated visitor.
func (uc *OrderUC) CustomerOrders(ctx context.Context, v domain.Visitor) ([]domain.Order, error) {
	if !v.Authenticated() {
		return nil, domain.ErrAuthRequired
	}
	cust, err := uc.Customers.FindByUser(ctx, v.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Order{}, nil
		}
		return nil, err
	}
	return uc.Orders.ListByCustomer(ctx, cust.ID)
}
