package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseforge-portal/internal/config"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":8090", cfg.HTTPAddress())
	require.Equal(t, "http://localhost:8080/api/v1", cfg.APIBaseURL)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, "bolt", cfg.StorageDriver)
	require.Equal(t, "courseforge", cfg.Namespace)
	require.Equal(t, "en", cfg.Locale)
	require.NotEmpty(t, cfg.StoragePath)
	require.Empty(t, cfg.AllowOrigins)
}

func TestLoadReadsPrefixedEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("COURSEFORGE_API_BASE_URL", "https://api.example.com/api/v1/")
	t.Setenv("COURSEFORGE_API_TIMEOUT", "3s")
	t.Setenv("COURSEFORGE_STORAGE_DRIVER", "Memory")
	t.Setenv("COURSEFORGE_LOCALE", "ru")
	t.Setenv("COURSEFORGE_PORTAL_PORT", ":9000")
	t.Setenv("COURSEFORGE_CORS_ALLOW_ORIGINS", " https://portal.example.com ")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com/api/v1", cfg.APIBaseURL)
	require.Equal(t, 3*time.Second, cfg.RequestTimeout)
	require.Equal(t, "memory", cfg.StorageDriver)
	require.Equal(t, "ru", cfg.Locale)
	require.Equal(t, ":9000", cfg.HTTPAddress())
	require.Equal(t, "https://portal.example.com", cfg.AllowOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdirTemp(t)

	t.Setenv("COURSEFORGE_STORAGE_DRIVER", "sqlite")
	_, err := config.Load()
	require.ErrorContains(t, err, "unsupported storage driver")

	t.Setenv("COURSEFORGE_STORAGE_DRIVER", "redis")
	_, err = config.Load()
	require.ErrorContains(t, err, "redis url")

	t.Setenv("COURSEFORGE_STORAGE_DRIVER", "memory")
	t.Setenv("COURSEFORGE_LOCALE", "de")
	_, err = config.Load()
	require.ErrorContains(t, err, "unsupported locale")

	t.Setenv("COURSEFORGE_LOCALE", "en")
	t.Setenv("COURSEFORGE_API_TIMEOUT", "soon")
	_, err = config.Load()
	require.ErrorContains(t, err, "invalid api timeout")
}
