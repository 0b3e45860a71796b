package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const EventsTopic = "menu-events"

type Config struct {
	DB       DBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	HTTP     HTTPConfig
	Catalog  CatalogConfig
	Web      WebConfig
	LogLevel string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host string
	Port string
}

type KafkaConfig struct {
	Broker string
	Topic  string
	Group  string
}

type HTTPConfig struct {
	Addr string
}

type CatalogConfig struct {
	UploadDir     string
	PublicBaseURL string
	StorefrontURL string
	SessionTTL    time.Duration
	PublicMenuTTL time.Duration
}

type WebConfig struct {
	CatalogSvcURL   string
	AnalyticsSvcURL string
	MetadataTimeout time.Duration
	UploadTimeout   time.Duration
	MaxImageWidth   int
	ImageQuality    int
	CartIdleTTL     time.Duration
	BuilderIdleTTL  time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "digital_menu"),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnv("REDIS_PORT", "6379"),
		},
		Kafka: KafkaConfig{
			Broker: getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:  getEnv("KAFKA_TOPIC", EventsTopic),
			Group:  getEnv("KAFKA_GROUP", "agg-svc"),
		},
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Catalog: CatalogConfig{
			UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8081"),
			StorefrontURL: getEnv("STOREFRONT_URL", "http://localhost:8080/menu"),
			SessionTTL:    getDuration("SESSION_TTL", 7*24*time.Hour),
			PublicMenuTTL: getDuration("PUBLIC_MENU_TTL", 5*time.Minute),
		},
		Web: WebConfig{
			CatalogSvcURL:   getEnv("CATALOG_SVC_URL", "http://localhost:8081"),
			AnalyticsSvcURL: getEnv("ANALYTICS_SVC_URL", "http://localhost:8083"),
			MetadataTimeout: getDuration("METADATA_TIMEOUT", 10*time.Second),
			UploadTimeout:   getDuration("UPLOAD_TIMEOUT", 60*time.Second),
			MaxImageWidth:   getInt("MAX_IMAGE_WIDTH", 1200),
			ImageQuality:    getInt("IMAGE_QUALITY", 80),
			CartIdleTTL:     getDuration("CART_IDLE_TTL", 2*time.Hour),
			BuilderIdleTTL:  getDuration("BUILDER_IDLE_TTL", 12*time.Hour),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func MustInitPostgres(cfg DBConfig, logger *zap.Logger) *sql.DB {
	connStr := "host=" + cfg.Host + " port=" + cfg.Port + " user=" + cfg.User +
		" password=" + cfg.Password + " dbname=" + cfg.Name + " sslmode=disable"

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err = db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis(cfg RedisConfig, logger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Host + ":" + cfg.Port,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	return client
}

func NewKafkaReader(cfg KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Broker},
		Topic:   cfg.Topic,
		GroupID: cfg.Group,
	})
}

func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(cfg.Broker),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return d
}
