package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// parseEnv overlays environment variables onto config. The variable names
// match the ones the service has always been deployed with.
//
//	ADDRESS                      HTTP bind address
//	DATABASE_URL                 PostgreSQL DSN
//	SECRET_KEY                   JWT HMAC secret
//	ACCESS_TOKEN_EXPIRE_MINUTES  access token validity, minutes
//	BCRYPT_COST                  bcrypt work factor
//	STORAGE_BACKEND              "disk" or "s3"
//	UPLOAD_DIR                   directory for the disk backend
//	MAX_FILE_SIZE                upload limit, bytes
//	ALLOWED_EXTENSIONS           comma separated
//	BLOCKED_EXTENSIONS           comma separated
//	S3_ACCESS_KEY, S3_SECRET_KEY, S3_BUCKET, S3_REGION, S3_ENDPOINT
//	LOG_LEVEL                    debug|info|warn|error
//	AUTH_RATE_LIMIT              requests per minute per client on /auth
//
// Malformed numeric values panic, like a malformed config file.
func parseEnv(config *Config) {
	envString(&config.EndpointAddr, "ADDRESS")
	envString(&config.DatabaseDSN, "DATABASE_URL")
	envString(&config.SecretKey, "SECRET_KEY")
	if v, ok := envInt("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		config.AccessTokenValidityDuration = time.Duration(v) * time.Minute
	}
	if v, ok := envInt("BCRYPT_COST"); ok {
		config.BcryptCost = int(v)
	}
	envString(&config.StorageBackend, "STORAGE_BACKEND")
	envString(&config.UploadDir, "UPLOAD_DIR")
	if v, ok := envInt("MAX_FILE_SIZE"); ok {
		config.MaxFileSize = v
	}
	if v, ok := os.LookupEnv("ALLOWED_EXTENSIONS"); ok {
		config.AllowedExtensions = splitList(v)
	}
	if v, ok := os.LookupEnv("BLOCKED_EXTENSIONS"); ok {
		config.BlockedExtensions = splitList(v)
	}
	envString(&config.S3RootUser, "S3_ACCESS_KEY")
	envString(&config.S3RootPassword, "S3_SECRET_KEY")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_ENDPOINT")
	envString(&config.LogLevel, "LOG_LEVEL")
	if v, ok := envInt("AUTH_RATE_LIMIT"); ok {
		config.AuthRateLimit = int(v)
	}
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string) (int64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		panic(fmt.Errorf("env %s: %w", key, err))
	}
	return n, true
}
