package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv("ADDRESS", ":9999")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("SECRET_KEY", "env-secret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("UPLOAD_DIR", "/tmp/up")
	t.Setenv("MAX_FILE_SIZE", "4096")
	t.Setenv("ALLOWED_EXTENSIONS", "txt, .PDF")
	t.Setenv("BLOCKED_EXTENSIONS", "exe")
	t.Setenv("S3_BUCKET", "env-bucket")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH_RATE_LIMIT", "0")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
	assert.Equal(t, "env-secret", cfg.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "s3", cfg.StorageBackend)
	assert.Equal(t, "/tmp/up", cfg.UploadDir)
	assert.Equal(t, int64(4096), cfg.MaxFileSize)
	assert.Equal(t, []string{"txt", "pdf"}, cfg.AllowedExtensions)
	assert.Equal(t, []string{"exe"}, cfg.BlockedExtensions)
	assert.Equal(t, "env-bucket", cfg.S3Bucket)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0, cfg.AuthRateLimit)
}

func Test_parseEnv_BadNumberPanics(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE", "ten megs")

	require.Panics(t, func() { parseEnv(&Config{}) })
}
