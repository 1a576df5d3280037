package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"muabook/internal/kvstore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STORE_BACKEND", "SQLITE_PATH", "POSTGRES_DSN", "REDIS_ADDR", "REDIS_DB",
		"BACKUP_DRIVER", "BACKUP_DIR", "BACKUP_S3_BUCKET", "BACKUP_S3_ENDPOINT", "BACKUP_S3_PATH_STYLE",
		"GOOGLE_SHEET_URL", "WATCH_INTERVAL", "LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, kvstore.BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "muabook.db", cfg.SQLitePath)
	assert.Equal(t, "none", cfg.BackupDriver)
	assert.Equal(t, 15*time.Minute, cfg.WatchInterval)
	assert.Equal(t, "stderr", cfg.GetLoggerConfig().Output)

	opts := cfg.StoreOptions()
	assert.Equal(t, kvstore.BackendSQLite, opts.Backend)
	assert.Equal(t, "muabook.db", opts.SQLitePath)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("BACKUP_DRIVER", "s3")
	t.Setenv("BACKUP_S3_BUCKET", "studio-backups")
	t.Setenv("BACKUP_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("BACKUP_S3_PATH_STYLE", "true")
	t.Setenv("WATCH_INTERVAL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cache:6379", cfg.StoreOptions().RedisAddr)
	assert.Equal(t, 3, cfg.StoreOptions().RedisDB)
	assert.Equal(t, 90*time.Second, cfg.WatchInterval)

	s3 := cfg.S3Config()
	assert.Equal(t, "studio-backups", s3.Bucket)
	assert.Equal(t, "http://minio:9000", s3.Endpoint)
	assert.True(t, s3.PathStyle)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "mongo"}, want: "STORE_BACKEND must be one of"},
		{name: "postgres without dsn", env: map[string]string{"STORE_BACKEND": "postgres"}, want: "POSTGRES_DSN is required"},
		{name: "s3 without bucket", env: map[string]string{"BACKUP_DRIVER": "s3"}, want: "BACKUP_S3_BUCKET is required"},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}, want: "LOG_LEVEL"},
		{name: "interval too short", env: map[string]string{"WATCH_INTERVAL": "10ms"}, want: "WATCH_INTERVAL"},
		{name: "unparsable interval", env: map[string]string{"WATCH_INTERVAL": "often"}, want: "WATCH_INTERVAL must be a duration"},
		{name: "bad redis db", env: map[string]string{"REDIS_DB": "x"}, want: "REDIS_DB must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
