package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTP   HTTPConfig
	DB     PostgresConfig
	Kafka  KafkaConfig
	Import ImportConfig
	Outbox OutboxConfig

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type HTTPConfig struct {
	Port            string        `envconfig:"HTTP_PORT" default:"5000"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

type PostgresConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	DBName   string `envconfig:"POSTGRES_DB" default:"inventory"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
}

type KafkaConfig struct {
	Brokers       []string `envconfig:"KAFKA_BROKERS"`
	OrderTopic    string   `envconfig:"KAFKA_ORDER_TOPIC" default:"order_events"`
	ConsumerGroup string   `envconfig:"KAFKA_CONSUMER_GROUP" default:"order-events-consumer"`
}

type ImportConfig struct {
	UploadDir        string        `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxUploadBytes   int64         `envconfig:"UPLOAD_MAX_BYTES" default:"33554432"`
	Workers          int           `envconfig:"IMPORT_WORKERS" default:"2"`
	QueueSize        int           `envconfig:"IMPORT_QUEUE" default:"16"`
	JobRetention     time.Duration `envconfig:"IMPORT_JOB_RETENTION" default:"1h"`
	StockConcurrency int           `envconfig:"STOCK_CONCURRENCY" default:"8"`
}

type OutboxConfig struct {
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	MaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"5"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	loadEnv()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, cfg.validate()
}

func loadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}

	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf("Loaded environment variables from %s", envPath)
			return
		}
	}
}

// DSN returns a key/value connection string for pgxpool.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// URL returns the connection string in URL form with the given scheme.
func (p PostgresConfig) URL(scheme string) string {
	return fmt.Sprintf("%s://%s:%s@%s:%d/%s?sslmode=%s",
		scheme, p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

func (c *Config) validate() error {
	if c.HTTP.Port == "" {
		return fmt.Errorf("HTTP_PORT is empty")
	}
	if c.DB.Host == "" || c.DB.User == "" || c.DB.DBName == "" {
		return fmt.Errorf("database config is incomplete")
	}
	if c.Import.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is empty")
	}
	if c.Import.Workers <= 0 {
		return fmt.Errorf("IMPORT_WORKERS must be positive, got %d", c.Import.Workers)
	}
	if c.Import.QueueSize <= 0 {
		return fmt.Errorf("IMPORT_QUEUE must be positive, got %d", c.Import.QueueSize)
	}
	if c.Import.StockConcurrency <= 0 {
		return fmt.Errorf("STOCK_CONCURRENCY must be positive, got %d", c.Import.StockConcurrency)
	}
	if c.Outbox.BatchSize <= 0 || c.Outbox.MaxAttempts <= 0 {
		return fmt.Errorf("outbox batch size and max attempts must be positive")
	}
	return nil
}
