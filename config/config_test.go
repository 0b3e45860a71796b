package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "KAFKA_TOPIC", "HTTP_ADDR", "CART_IDLE_TTL", "MAX_IMAGE_WIDTH", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, EventsTopic, cfg.Kafka.Topic)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Web.CartIdleTTL)
	assert.Equal(t, 1200, cfg.Web.MaxImageWidth)
	assert.Equal(t, 10*time.Second, cfg.Web.MetadataTimeout)
	assert.Equal(t, 60*time.Second, cfg.Web.UploadTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("KAFKA_GROUP", "agg-test")
	t.Setenv("CART_IDLE_TTL", "30m")
	t.Setenv("MAX_IMAGE_WIDTH", "800")
	t.Setenv("CATALOG_SVC_URL", "http://catalog:8081")

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "agg-test", cfg.Kafka.Group)
	assert.Equal(t, 30*time.Minute, cfg.Web.CartIdleTTL)
	assert.Equal(t, 800, cfg.Web.MaxImageWidth)
	assert.Equal(t, "http://catalog:8081", cfg.Web.CatalogSvcURL)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("UPLOAD_TIMEOUT", "soon")
	t.Setenv("IMAGE_QUALITY", "high")

	cfg := Load()

	assert.Equal(t, 60*time.Second, cfg.Web.UploadTimeout)
	assert.Equal(t, 80, cfg.Web.ImageQuality)
}

func TestNewLogger_Level(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("info")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
