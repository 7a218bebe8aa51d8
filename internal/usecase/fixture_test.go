package usecase_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/phenrril/eshop/internal/adapters/repo/postgres"
	"github.com/phenrril/eshop/internal/domain"
	"github.com/phenrril/eshop/internal/testutil"
	"github.com/phenrril/eshop/internal/usecase"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) OrderPlaced(ctx context.Context, ev domain.OrderPlaced) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

type fixture struct {
	db       *gorm.DB
	seed     testutil.Catalog
	carts    *postgres.CartRepo
	orders   *postgres.OrderRepo
	storage  *MockStorage
	notifier *MockNotifier
	catalog  *usecase.CatalogUC
	cartUC   *usecase.CartUC
	orderUC  *usecase.OrderUC
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:       db,
		seed:     testutil.SeedCatalog(t, db),
		carts:    postgres.NewCartRepo(db),
		orders:   postgres.NewOrderRepo(db),
		storage:  new(MockStorage),
		notifier: new(MockNotifier),
	}
	encode := func(r io.Reader) ([]byte, error) {
		if _, err := io.ReadAll(r); err != nil {
			return nil, err
		}
		return []byte("jpeg"), nil
	}
	f.catalog = usecase.NewCatalogUC(postgres.NewCategoryRepo(db), f.storage, encode,
		postgres.NewDressRepo(db), postgres.NewSkirtRepo(db))
	customers := postgres.NewCustomerRepo(db)
	f.cartUC = &usecase.CartUC{Catalog: f.catalog, Customers: customers, Carts: f.carts}
	f.orderUC = usecase.NewOrderUC(customers, f.carts, f.orders, f.notifier)
	return f
}

func validForm() domain.OrderForm {
	return domain.OrderForm{
		FirstName:  "Anna",
		LastName:   "Smith",
		Phone:      "+100000000",
		Address:    "1 Main St",
		BuyingType: "delivery",
		OrderDate:  "2024-03-01",
		Comment:    "leave at the door",
	}
}
