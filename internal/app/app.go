package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/phenrril/eshop/internal/adapters/health"
	"github.com/phenrril/eshop/internal/adapters/httpserver"
	"github.com/phenrril/eshop/internal/adapters/imaging"
	"github.com/phenrril/eshop/internal/adapters/notify"
	"github.com/phenrril/eshop/internal/adapters/repo/postgres"
	"github.com/phenrril/eshop/internal/adapters/storage/localfs"
	"github.com/phenrril/eshop/internal/config"
	"github.com/phenrril/eshop/internal/domain"
	"github.com/phenrril/eshop/internal/usecase"
)

type App struct {
	DB          *gorm.DB
	Config      *config.Config
	CatalogUC   *usecase.CatalogUC
	CartUC      *usecase.CartUC
	OrderUC     *usecase.OrderUC
	Users       domain.UserRepo
	Customers   domain.CustomerRepo
	Storage     *localfs.Storage
	Feed        *notify.Hub
	Health      *health.Checker
	Sessions    sessions.Store
	OAuthConfig *oauth2.Config
}

func NewApp(db *gorm.DB, cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	storage := localfs.New(cfg.StorageDir)
	catalog := usecase.NewCatalogUC(postgres.NewCategoryRepo(db), storage, imaging.Thumbnail,
		postgres.NewDressRepo(db), postgres.NewSkirtRepo(db))
	customers := postgres.NewCustomerRepo(db)
	carts := postgres.NewCartRepo(db)
	hub := notify.NewHub()

	store := sessions.NewCookieStore([]byte(cfg.Auth.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
		Secure:   !cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	}

	var oauthCfg *oauth2.Config
	if cfg.Auth.GoogleClientID != "" && cfg.Auth.GoogleClientSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID/SECRET not set, customer login disabled")
	}

	return &App{
		DB:          db,
		Config:      cfg,
		CatalogUC:   catalog,
		CartUC:      &usecase.CartUC{Catalog: catalog, Customers: customers, Carts: carts},
		OrderUC:     usecase.NewOrderUC(customers, carts, postgres.NewOrderRepo(db), hub),
		Users:       postgres.NewUserRepo(db),
		Customers:   customers,
		Storage:     storage,
		Feed:        hub,
		Health:      health.NewChecker(sqlDB),
		Sessions:    store,
		OAuthConfig: oauthCfg,
	}, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Deps{
		Catalog:      a.CatalogUC,
		Carts:        a.CartUC,
		Orders:       a.OrderUC,
		Users:        a.Users,
		Customers:    a.Customers,
		Sessions:     a.Sessions,
		OAuth:        a.OAuthConfig,
		OrderFeed:    a.Feed,
		Health:       a.Health,
		UploadsDir:   a.Storage.Dir(),
		AdminAPIKey:  a.Config.Auth.AdminAPIKey,
		AdminSecret:  []byte(a.Config.Auth.AdminSecret),
		AdminAllowed: a.Config.Auth.AllowedAdmins(),
	})
}

var defaultCategories = []domain.Category{
	{Name: "Dresses", Slug: string(domain.ProductTypeDress)},
	{Name: "Skirts", Slug: string(domain.ProductTypeSkirt)},
}

// MigrateAndSeed applies the schema and makes sure every product family has
// its category.
func (a *App) MigrateAndSeed(ctx context.Context) error {
	if err := postgres.Migrate(a.DB); err != nil {
		return err
	}
	for _, c := range defaultCategories {
		if _, err := a.CatalogUC.Categories.FindBySlug(ctx, c.Slug); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		c := c
		if err := a.CatalogUC.CreateCategory(ctx, &c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
		log.Info().Str("slug", c.Slug).Msg("seeded category")
	}
	return nil
}
