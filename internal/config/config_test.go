package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTP.TimeoutRead)
	assert.Equal(t, "9090", cfg.GRPC.Port)
	assert.Equal(t, "uploads", cfg.StorageDir)
	assert.Equal(t, "host=localhost user=postgres password=postgres dbname=eshop port=5432 sslmode=disable", cfg.Postgres.ConnString())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_KEY", "s3cret")
	t.Setenv("JWT_ADMIN_SECRET", "jwt-s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DSN", "postgres://u:p@db/shop")
	t.Setenv("ADMIN_ALLOWED_EMAILS", " Boss@Shop.com ,ops@shop.com,")
	t.Setenv("HTTP_SERVER_TIMEOUT_IDLE", "2m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.Equal(t, 2*time.Minute, cfg.HTTP.TimeoutIdle)
	assert.Equal(t, "postgres://u:p@db/shop", cfg.Postgres.ConnString())
	assert.Equal(t, map[string]struct{}{"boss@shop.com": {}, "ops@shop.com": {}}, cfg.Auth.AllowedAdmins())
}

func TestLoadRequiresSecretsOutsideDev(t *testing.T) {
	cases := []struct {
		name, session, admin, want string
	}{
		{"empty session key", "", "jwt-s3cret", "SESSION_KEY"},
		{"default session key", "dev-insecure", "jwt-s3cret", "SESSION_KEY"},
		{"empty admin secret", "s3cret", "", "JWT_ADMIN_SECRET"},
		{"default admin secret", "s3cret", "dev-admin-secret", "JWT_ADMIN_SECRET"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "production")
			t.Setenv("SESSION_KEY", tc.session)
			t.Setenv("JWT_ADMIN_SECRET", tc.admin)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_KEY", "")
	t.Setenv("JWT_ADMIN_SECRET", "")
	_, err := Load()
	require.NoError(t, err, "development keeps working without secrets")
}
