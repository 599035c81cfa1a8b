package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	Provider ProviderConfig
	Trim     TrimConfig
	Poll     PollConfig
	Queue    QueueConfig
	Server   ServerConfig
}

// DatabaseConfig holds job-store configuration. DSN selects the backend:
// postgres://... opens a pgx pool, anything else is treated as a SQLite path.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// StorageConfig holds object-store (MinIO/S3) configuration.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ProviderConfig holds extraction-provider configuration.
type ProviderConfig struct {
	BaseURL     string
	APIKey      string
	WorkflowID  string
	HTTPTimeout time.Duration
}

// TrimConfig holds page-trimming thresholds.
type TrimConfig struct {
	MinScore      int // minimum page score to keep a page
	WarnPageCount int // above this, the job parks in needs_trim
}

// PollConfig bounds the provider poll loop.
type PollConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Timeout      time.Duration // overall deadline for one run
}

// QueueConfig sizes the dispatch worker pool.
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "finsight.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "finsight-documents"),
			UseSSL:    getEnvAsBool("S3_USE_SSL", false),
		},
		Provider: ProviderConfig{
			BaseURL:     getEnv("DOCUPIPE_BASE_URL", "https://app.docupipe.ai/api"),
			APIKey:      getEnv("DOCUPIPE_API_KEY", ""),
			WorkflowID:  getEnv("DOCUPIPE_WORKFLOW_ID", ""),
			HTTPTimeout: getEnvAsDuration("DOCUPIPE_HTTP_TIMEOUT", 30*time.Second),
		},
		Trim: TrimConfig{
			MinScore:      getEnvAsInt("TRIM_MIN_SCORE", 5),
			WarnPageCount: getEnvAsInt("TRIM_WARN_PAGE_COUNT", 10),
		},
		Poll: PollConfig{
			InitialDelay: getEnvAsDuration("POLL_INITIAL_DELAY", 750*time.Millisecond),
			Multiplier:   getEnvAsFloat64("POLL_MULTIPLIER", 1.75),
			MaxDelay:     getEnvAsDuration("POLL_MAX_DELAY", 8*time.Second),
			Timeout:      getEnvAsDuration("POLL_TIMEOUT", 6*time.Minute),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 6),
			Size:           getEnvAsInt("QUEUE_SIZE", 512),
			ProcessTimeout: getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", 10*time.Minute),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Provider.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "DOCUPIPE_API_KEY is required", ErrInvalidInput)
	}
	if c.Provider.WorkflowID == "" {
		return NewAppError("CONFIG_ERROR", "DOCUPIPE_WORKFLOW_ID is required", ErrInvalidInput)
	}
	if c.Trim.MinScore < 0 {
		return NewAppError("CONFIG_ERROR", "TRIM_MIN_SCORE must be >= 0", ErrInvalidInput)
	}
	if c.Poll.Multiplier < 1 {
		return NewAppError("CONFIG_ERROR", "POLL_MULTIPLIER must be >= 1", ErrInvalidInput)
	}
	return nil
}
