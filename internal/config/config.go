package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/psds-microservice/inquiry-service/internal/kafka"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// JWTSecret подписывает токены сессий, JWTExpire задаёт их срок жизни.
	JWTSecret    string
	JWTExpire    time.Duration
	UserCacheTTL time.Duration

	Storage struct {
		Driver      string // local | s3
		UploadDir   string
		MaxFileSize int64
		S3Bucket    string
		S3Region    string
		S3Endpoint  string
		S3AccessKey string
		S3SecretKey string
	}

	// KafkaBrokers/KafkaTopicInquiry: если заданы оба, события заявок публикуются в Kafka.
	KafkaBrokers      []string
	KafkaTopicInquiry string
	// NotifyWebhookURL: если задан, те же события отправляются POST-запросом в JSON.
	NotifyWebhookURL string
	SlackBotToken    string
	SlackChannelID   string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:           getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:          firstEnv("APP_PORT", "HTTP_PORT", "8097"),
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		KafkaBrokers:      kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicInquiry: getEnv("KAFKA_TOPIC_INQUIRY", "inquiry.events"),
		NotifyWebhookURL:  getEnv("NOTIFY_WEBHOOK_URL", ""),
		SlackBotToken:     getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannelID:    getEnv("SLACK_CHANNEL_ID", ""),
	}
	var err error
	if cfg.JWTExpire, err = getDuration("JWT_EXPIRE", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.UserCacheTTL, err = getDuration("USER_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}

	cfg.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", "local"))
	cfg.Storage.UploadDir = getEnv("UPLOAD_DIR", "./uploads")
	cfg.Storage.S3Bucket = getEnv("S3_BUCKET", "")
	cfg.Storage.S3Region = getEnv("S3_REGION", "")
	cfg.Storage.S3Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.Storage.S3AccessKey = getEnv("S3_ACCESS_KEY_ID", "")
	cfg.Storage.S3SecretKey = getEnv("S3_SECRET_ACCESS_KEY", "")
	maxSize, err := strconv.ParseInt(getEnv("MAX_FILE_SIZE", "5000000"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("config: MAX_FILE_SIZE: %w", err)
	}
	cfg.Storage.MaxFileSize = maxSize

	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "inquiry_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		if c.AppEnv == "production" {
			return errors.New("config: in production JWT_SECRET is required")
		}
		c.JWTSecret = "dev-secret"
	}
	if c.JWTExpire <= 0 {
		return errors.New("config: JWT_EXPIRE must be positive")
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.UploadDir == "" {
			return errors.New("config: UPLOAD_DIR is required for local storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("config: S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.MaxFileSize <= 0 {
		return errors.New("config: MAX_FILE_SIZE must be positive")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
