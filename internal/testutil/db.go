// Package testutil wires an in-memory database with the production schema
// and a small catalog fixture for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/eshop/internal/adapters/repo/postgres"
	"github.com/phenrril/eshop/internal/domain"
)

// NewDB opens a private in-memory database and runs the migrations. A single
// connection keeps every query on the same database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, postgres.Migrate(db))
	return db
}

// Catalog is the fixture created by SeedCatalog.
type Catalog struct {
	DressCategory *domain.Category
	SkirtCategory *domain.Category
	Dress         *domain.Dress
	Skirt         *domain.Skirt
}

// SeedCatalog stores the "dress" and "skirt" categories, a "Test Dress"
// priced 50000.00 and a "Test Skirt" priced 1500.50.
func SeedCatalog(t testing.TB, db *gorm.DB) Catalog {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	cats := postgres.NewCategoryRepo(db)
	dressCat := &domain.Category{Name: "Dresses", Slug: "dress"}
	skirtCat := &domain.Category{Name: "Skirts", Slug: "skirt"}
	require.NoError(t, cats.Save(ctx, dressCat))
	require.NoError(t, cats.Save(ctx, skirtCat))

	dress := &domain.Dress{
		ProductBase: domain.ProductBase{
			CategoryID: dressCat.ID,
			Title:      "Test Dress",
			Slug:       "test-slug",
			Image:      "test-slug.jpg",
			Price:      decimal.RequireFromString("50000.00"),
			CreatedAt:  base,
		},
		Style: "little black", Structure: "cotton", Cut: "baby doll",
		Silhouette: "trapezoid", Color: "black", Length: "maxi",
	}
	require.NoError(t, postgres.NewDressRepo(db).Save(ctx, dress))

	skirt := &domain.Skirt{
		ProductBase: domain.ProductBase{
			CategoryID: skirtCat.ID,
			Title:      "Test Skirt",
			Slug:       "test-skirt",
			Image:      "test-skirt.jpg",
			Price:      decimal.RequireFromString("1500.50"),
			CreatedAt:  base.Add(time.Minute),
		},
		Style: "pencil", Structure: "wool", Cut: "straight",
		Silhouette: "fitted", Landing: "high", Length: "midi",
	}
	require.NoError(t, postgres.NewSkirtRepo(db).Save(ctx, skirt))

	return Catalog{DressCategory: dressCat, SkirtCategory: skirtCat, Dress: dress, Skirt: skirt}
}

// NewUser stores a login identity and returns it.
func NewUser(t testing.TB, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, FirstName: "Test", LastName: "User"}
	require.NoError(t, postgres.NewUserRepo(db).Save(context.Background(), u))
	require.NotEqual(t, uuid.Nil, u.ID)
	return u
}
