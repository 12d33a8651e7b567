package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Settings is the process configuration shared by app-svc and agg-svc.
type Settings struct {
	HTTPAddr      string
	AggHTTPAddr   string
	StoreBackend  string
	LogLevel      string
	PublicBaseURL string

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	RedisHost string
	RedisPort string

	KafkaBroker      string
	OrderEventsTopic string
	ConsumerGroup    string

	SessionSecret string
	SessionKey    string
}

// Load reads an optional .env file and then the process environment.
func Load(envFile string) Settings {
	if envFile != "" {
		// a missing file is fine, the environment may already be populated
		_ = godotenv.Load(envFile)
	}

	return Settings{
		HTTPAddr:         getEnv("HTTP_ADDR", ":8081"),
		AggHTTPAddr:      getEnv("AGG_HTTP_ADDR", ":8082"),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:8081"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBName:           getEnv("DB_NAME", "foodcourt"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		KafkaBroker:      os.Getenv("KAFKA_BROKER"),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "orders"),
		ConsumerGroup:    getEnv("CONSUMER_GROUP", "agg-svc-consumer"),
		SessionSecret:    getEnv("SESSION_SECRET", "dev-session-secret"),
		SessionKey:       getEnv("SESSION_KEY", "default"),
	}
}

func (s Settings) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		s.DBHost, s.DBPort, s.DBUser, s.DBPassword, s.DBName)
}

func (s Settings) RedisAddr() string {
	return s.RedisHost + ":" + s.RedisPort
}

func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableLevelTruncation: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("unknown log level, falling back to info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func MustInitPostgres(s Settings, logger *logrus.Logger) *sql.DB {
	db, err := sql.Open("postgres", s.PostgresDSN())
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if err = db.Ping(); err != nil {
		logger.WithError(err).Fatal("Failed to ping database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis(s Settings, logger *logrus.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: s.RedisAddr(),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	return client
}

// NewKafkaWriter returns nil when no broker is configured.
func NewKafkaWriter(s Settings) *kafka.Writer {
	if s.KafkaBroker == "" {
		return nil
	}
	return &kafka.Writer{
		Addr:     kafka.TCP(s.KafkaBroker),
		Topic:    s.OrderEventsTopic,
		Balancer: &kafka.LeastBytes{},
	}
}

func NewKafkaReader(s Settings) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{s.KafkaBroker},
		Topic:   s.OrderEventsTopic,
		GroupID: s.ConsumerGroup,
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
