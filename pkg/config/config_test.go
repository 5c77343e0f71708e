package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlegateit/memberdir/pkg/observability"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, ":memory:", cfg.Store.SQLitePath)
	assert.Equal(t, 10, cfg.Search.PerPage)
	assert.False(t, cfg.Search.Approval)
	assert.Equal(t, observability.InfoLevel, cfg.Log.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MEMBERDIR_PORT", "9000")
	t.Setenv("MEMBERDIR_STORE_DRIVER", "postgres")
	t.Setenv("MEMBERDIR_POSTGRES_URL", "postgres://localhost/members")
	t.Setenv("MEMBERDIR_SEARCH_PER_PAGE", "25")
	t.Setenv("MEMBERDIR_APPROVAL_ENABLED", "true")
	t.Setenv("MEMBERDIR_CACHE_TTL", "30s")
	t.Setenv("MEMBERDIR_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 25, cfg.Search.PerPage)
	assert.True(t, cfg.Search.Approval)
	assert.Equal(t, 30*time.Second, cfg.Store.CacheTTL)
	assert.Equal(t, observability.DebugLevel, cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	t.Run("postgres requires a url", func(t *testing.T) {
		t.Setenv("MEMBERDIR_STORE_DRIVER", "postgres")

		_, err := Load()
		assert.ErrorContains(t, err, "MEMBERDIR_POSTGRES_URL")
	})

	t.Run("unknown driver rejected", func(t *testing.T) {
		t.Setenv("MEMBERDIR_STORE_DRIVER", "oracle")

		_, err := Load()
		assert.ErrorContains(t, err, "unknown store driver")
	})

	t.Run("negative page size rejected", func(t *testing.T) {
		t.Setenv("MEMBERDIR_SEARCH_PER_PAGE", "-1")

		_, err := Load()
		assert.ErrorContains(t, err, "MEMBERDIR_SEARCH_PER_PAGE")
	})
}

func TestEnvHelpers(t *testing.T) {
	t.Run("malformed values keep defaults", func(t *testing.T) {
		t.Setenv("MEMBERDIR_SEARCH_PER_PAGE", "lots")
		t.Setenv("MEMBERDIR_APPROVAL_ENABLED", "sometimes")
		t.Setenv("MEMBERDIR_READ_TIMEOUT", "soon")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 10, cfg.Search.PerPage)
		assert.False(t, cfg.Search.Approval)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	})
}
