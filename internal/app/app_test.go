package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/eshop/internal/config"
)

func newTestApp(t *testing.T) *App {
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

	cfg := &config.Config{
		AppEnv:     "development",
		BaseURL:    "http://localhost:8080",
		StorageDir: t.TempDir(),
		Auth:       config.AuthConfig{SessionKey: "test-session-key", AdminSecret: "secret"},
	}
	a, err := NewApp(db, cfg)
	require.NoError(t, err)
	return a
}

func TestMigrateAndSeed(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.MigrateAndSeed(ctx))
	require.NoError(t, a.MigrateAndSeed(ctx), "seeding twice is a no-op")

	cats, err := a.CatalogUC.SidebarCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "dress", cats[0].Slug)
	assert.Equal(t, "skirt", cats[1].Slug)
	assert.Nil(t, a.OAuthConfig, "login stays off without Google credentials")
}

func TestHTTPHandler(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.MigrateAndSeed(context.Background()))
	h := a.HTTPHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Result().Cookies(), "the visitor gets a session cookie")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "admin login needs ADMIN_API_KEY")
}
