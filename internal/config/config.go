package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"muabook/internal/backup"
	"muabook/internal/kvstore"
	"muabook/internal/logger"
	"muabook/internal/sheets"
)

type Config struct {
	// Entity store
	StoreBackend   string `validate:"oneof=memory sqlite postgres redis"`
	SQLitePath     string `validate:"required_if=StoreBackend sqlite"`
	PostgresDSN    string `validate:"required_if=StoreBackend postgres"`
	RedisAddr      string `validate:"required_if=StoreBackend redis"`
	RedisPassword  string
	RedisDB        int `validate:"gte=0"`
	StoreKeyPrefix string

	// Backups taken before mutating passes
	BackupDriver       string `validate:"oneof=none dir s3"`
	BackupDir          string `validate:"required_if=BackupDriver dir"`
	BackupS3Bucket     string `validate:"required_if=BackupDriver s3"`
	BackupS3Region     string
	BackupS3Endpoint   string `validate:"omitempty,url"`
	BackupS3Prefix     string
	BackupS3PathStyle  bool
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Google Sheets export of findings
	GoogleSheetURL        string `validate:"omitempty,url"`
	GoogleSheetWorksheet  string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// watch command
	MetricsAddr   string
	WatchInterval time.Duration `validate:"gte=1s"`
	Environment   string

	// Logging Configuration
	LogLevel      string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat     string `validate:"oneof=json console"`
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		StoreBackend:          getEnv("STORE_BACKEND", kvstore.BackendSQLite),
		SQLitePath:            getEnv("SQLITE_PATH", "muabook.db"),
		PostgresDSN:           getEnv("POSTGRES_DSN", ""),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		StoreKeyPrefix:        getEnv("STORE_KEY_PREFIX", ""),
		BackupDriver:          getEnv("BACKUP_DRIVER", "none"),
		BackupDir:             getEnv("BACKUP_DIR", "backups"),
		BackupS3Bucket:        getEnv("BACKUP_S3_BUCKET", ""),
		BackupS3Region:        getEnv("BACKUP_S3_REGION", "us-east-1"),
		BackupS3Endpoint:      getEnv("BACKUP_S3_ENDPOINT", ""),
		BackupS3Prefix:        getEnv("BACKUP_S3_PREFIX", "muabook"),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS", ""),
		MetricsAddr:           getEnv("METRICS_ADDR", ":9090"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB must be an integer: %w", err)
	}
	if config.BackupS3PathStyle, err = strconv.ParseBool(getEnv("BACKUP_S3_PATH_STYLE", "false")); err != nil {
		return nil, fmt.Errorf("BACKUP_S3_PATH_STYLE must be true or false: %w", err)
	}
	if config.WatchInterval, err = time.ParseDuration(getEnv("WATCH_INTERVAL", "15m")); err != nil {
		return nil, fmt.Errorf("WATCH_INTERVAL must be a duration: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// envNames maps struct fields to the variables that set them, for error messages.
var envNames = map[string]string{
	"StoreBackend":     "STORE_BACKEND",
	"SQLitePath":       "SQLITE_PATH",
	"PostgresDSN":      "POSTGRES_DSN",
	"RedisAddr":        "REDIS_ADDR",
	"RedisDB":          "REDIS_DB",
	"BackupDriver":     "BACKUP_DRIVER",
	"BackupDir":        "BACKUP_DIR",
	"BackupS3Bucket":   "BACKUP_S3_BUCKET",
	"BackupS3Endpoint": "BACKUP_S3_ENDPOINT",
	"GoogleSheetURL":   "GOOGLE_SHEET_URL",
	"WatchInterval":    "WATCH_INTERVAL",
	"LogLevel":         "LOG_LEVEL",
	"LogFormat":        "LOG_FORMAT",
}

func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := envNames[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", name))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", name, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// StoreOptions returns the key-value backend selection.
func (c *Config) StoreOptions() kvstore.Options {
	return kvstore.Options{
		Backend:       c.StoreBackend,
		SQLitePath:    c.SQLitePath,
		PostgresDSN:   c.PostgresDSN,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		KeyPrefix:     c.StoreKeyPrefix,
	}
}

// S3Config returns the backup bucket configuration.
func (c *Config) S3Config() backup.S3Config {
	return backup.S3Config{
		Region:          c.BackupS3Region,
		Bucket:          c.BackupS3Bucket,
		Prefix:          c.BackupS3Prefix,
		Endpoint:        c.BackupS3Endpoint,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
		PathStyle:       c.BackupS3PathStyle,
	}
}

// GoogleCredentials returns the service account location for the Sheets export.
func (c *Config) GoogleCredentials() sheets.Credentials {
	return sheets.Credentials{File: c.GoogleCredentialsFile, JSON: c.GoogleCredentialsJSON}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
