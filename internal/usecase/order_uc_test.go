package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/phenrril/eshop/internal/domain"
	"github.com/phenrril/eshop/internal/testutil"
)

// customerWithDress logs a user in and puts the test dress in their cart.
func customerWithDress(t *testing.T, f *fixture) (domain.Visitor, *domain.Cart) {
	t.Helper()
	ctx := context.Background()
	u := testutil.NewUser(t, f.db, "anna@example.com")
	v := domain.Visitor{UserID: u.ID, SessionKey: "sess-1"}
	cart, err := f.cartUC.Resolve(ctx, v)
	require.NoError(t, err)
	require.NoError(t, f.cartUC.Add(ctx, cart, domain.ProductTypeDress, "test-slug"))
	return v, cart
}

func countOrders(t *testing.T, f *fixture) int {
	t.Helper()
	list, err := f.orderUC.List(context.Background())
	require.NoError(t, err)
	return len(list)
}

func TestOrderUC_PlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, cart := customerWithDress(t, f)

	f.notifier.On("OrderPlaced", mock.Anything, mock.MatchedBy(func(ev domain.OrderPlaced) bool {
		return ev.CartID == cart.ID && ev.Total == "50000.00" && ev.BuyingType == "delivery"
	})).Return(nil).Once()

	o, err := f.orderUC.PlaceOrder(ctx, v, validForm())
	require.NoError(t, err)
	f.notifier.AssertExpectations(t)

	cust, err := f.cartUC.Customers.FindByUser(ctx, v.UserID)
	require.NoError(t, err)
	assert.Equal(t, cust.ID, o.CustomerID)
	require.NotNil(t, o.CartID)
	assert.Equal(t, cart.ID, *o.CartID)
	assert.Equal(t, domain.OrderStatusNew, o.Status)
	assert.Equal(t, "2024-03-01", o.OrderDate.Format("2006-01-02"))

	stored, err := f.carts.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.True(t, stored.Finalized)
	require.Len(t, stored.Items, 1, "line items stay on the finalized cart")
	assert.Equal(t, f.seed.Dress.ID, stored.Items[0].ProductID)

	saved, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.CartID)
	assert.Equal(t, cart.ID, *saved.CartID)
	assert.Equal(t, "Anna", saved.FirstName)

	mine, err := f.orderUC.CustomerOrders(ctx, v)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, o.ID, mine[0].ID)

	next, err := f.cartUC.Resolve(ctx, v)
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, next.ID, "a fresh cart is opened after checkout")
	assert.False(t, next.Finalized)
	assert.Zero(t, next.TotalItems)
}

func TestOrderUC_InvalidFormWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, cart := customerWithDress(t, f)

	bad := validForm()
	bad.FirstName = "  "
	bad.Address = ""
	bad.BuyingType = "teleport"
	bad.OrderDate = "01/03/2024"

	_, err := f.orderUC.PlaceOrder(ctx, v, bad)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["first_name"])
	assert.Equal(t, "required", verr.Fields["address"])
	assert.Contains(t, verr.Fields, "buying_type")
	assert.Contains(t, verr.Fields, "order_date")
	assert.NotContains(t, verr.Fields, "phone")

	assert.Zero(t, countOrders(t, f))
	stored, err := f.carts.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.False(t, stored.Finalized)

	f.notifier.On("OrderPlaced", mock.Anything, mock.Anything).Return(nil).Once()
	o, err := f.orderUC.PlaceOrder(ctx, v, validForm())
	require.NoError(t, err)
	require.NotNil(t, o.CartID)
	assert.Equal(t, cart.ID, *o.CartID)
	assert.Equal(t, 1, countOrders(t, f))
}

func TestOrderUC_AnonymousCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := domain.Visitor{SessionKey: "sess-1"}
	cart, err := f.cartUC.Resolve(ctx, v)
	require.NoError(t, err)
	require.NoError(t, f.cartUC.Add(ctx, cart, domain.ProductTypeDress, "test-slug"))

	_, err = f.orderUC.PlaceOrder(ctx, v, validForm())
	require.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Zero(t, countOrders(t, f))
	f.notifier.AssertNotCalled(t, "OrderPlaced", mock.Anything, mock.Anything)
}

func TestOrderUC_UserWithoutCustomer(t *testing.T) {
	f := newFixture(t)
	u := testutil.NewUser(t, f.db, "nobody@example.com")

	_, err := f.orderUC.PlaceOrder(context.Background(), domain.Visitor{UserID: u.ID}, validForm())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderUC_EmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.NewUser(t, f.db, "anna@example.com")
	v := domain.Visitor{UserID: u.ID}
	cart, err := f.cartUC.Resolve(ctx, v)
	require.NoError(t, err)

	_, err = f.orderUC.PlaceOrder(ctx, v, validForm())
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "cart")
	assert.Zero(t, countOrders(t, f))

	stored, err := f.carts.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.False(t, stored.Finalized)
}

func TestOrderUC_NotifierFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	v, _ := customerWithDress(t, f)
	f.notifier.On("OrderPlaced", mock.Anything, mock.Anything).Return(errors.New("feed down")).Once()

	o, err := f.orderUC.PlaceOrder(context.Background(), v, validForm())
	require.NoError(t, err)
	assert.NotNil(t, o)
	f.notifier.AssertExpectations(t)
}

func TestOrderUC_FailedTransactionRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, cart := customerWithDress(t, f)

	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:fail_cart_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "carts" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := f.orderUC.PlaceOrder(ctx, v, validForm())
	require.ErrorIs(t, err, domain.ErrTransactionFailure)

	assert.Zero(t, countOrders(t, f), "no order may survive the rollback")
	stored, err := f.carts.FindByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.False(t, stored.Finalized)
	assert.Len(t, stored.Items, 1)
	f.notifier.AssertNotCalled(t, "OrderPlaced", mock.Anything, mock.Anything)
}

func TestOrderUC_AdvanceStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, _ := customerWithDress(t, f)
	f.notifier.On("OrderPlaced", mock.Anything, mock.Anything).Return(nil)
	o, err := f.orderUC.PlaceOrder(ctx, v, validForm())
	require.NoError(t, err)

	_, err = f.orderUC.AdvanceStatus(ctx, o.ID, domain.OrderStatusCompleted)
	require.ErrorIs(t, err, domain.ErrValidation)

	for _, to := range []domain.OrderStatus{domain.OrderStatusInProgress, domain.OrderStatusReady, domain.OrderStatusCompleted} {
		got, err := f.orderUC.AdvanceStatus(ctx, o.ID, to)
		require.NoError(t, err)
		assert.Equal(t, to, got.Status)
	}

	_, err = f.orderUC.AdvanceStatus(ctx, o.ID, domain.OrderStatusNew)
	require.ErrorIs(t, err, domain.ErrValidation)

	saved, err := f.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, saved.Status)
}

func TestOrderUC_CustomerOrdersRequiresLogin(t *testing.T) {
	f := newFixture(t)
	_, err := f.orderUC.CustomerOrders(context.Background(), domain.Visitor{SessionKey: "sess-1"})
	require.ErrorIs(t, err, domain.ErrAuthRequired)
}
