package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("OPENAI_API_KEY", "test-key")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.ServerPort)
		assert.Equal(t, "sqlite", cfg.DBDriver)
		assert.Equal(t, "nutrisnap.db", cfg.DBPath)
		assert.Equal(t, "gpt-4o", cfg.VisionModel)
		assert.Equal(t, "gpt-4o-mini", cfg.TextModel)
		assert.Equal(t, int64(4), cfg.ScanConcurrency)
		assert.Equal(t, 20, cfg.ScanRateLimit)
		assert.Equal(t, "local", cfg.UploadBackend)
	})

	t.Run("should fail without a JWT secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("OPENAI_API_KEY", "test-key")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("should fail without a model API key", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("OPENAI_API_KEY", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("should reject an unknown database driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("OPENAI_API_KEY", "test-key")
		t.Setenv("DB_DRIVER", "oracle")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_DRIVER")
	})

	t.Run("should require a DSN for postgres", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("OPENAI_API_KEY", "test-key")
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DB_DSN", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_DSN")
	})

	t.Run("should reject a non-positive scan concurrency", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("OPENAI_API_KEY", "test-key")
		t.Setenv("SCAN_CONCURRENCY", "0")

		_, err := Load()
		assert.Error(t, err)
	})
}
