package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the API server and the exam worker.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	ObjectStore ObjectStoreConfig
	AI          AIConfig
	Worker      WorkerConfig
	Exam        ExamConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	RateLimitPerMinute int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type ObjectStoreConfig struct {
	Driver string
	Bucket string
	Minio  MinioConfig
	GCS    GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

type GCSConfig struct {
	CredentialsFile string
	EmulatorHost    string
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Gemini           GeminiConfig
}

type GeminiConfig struct {
	Model   string
	BaseURL string
}

// WorkerConfig controls the asynq worker pool that executes exam jobs.
type WorkerConfig struct {
	Queue       string
	Concurrency int
	JobTimeout  time.Duration
	Retention   time.Duration
}

type ExamConfig struct {
	PromptTemplatePath string
	DefaultTemperature float64
}

var validProviders = map[string]bool{
	"gemini": true,
}

var validObjectStoreDrivers = map[string]bool{
	"minio": true,
	"gcs":   true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("EXAMFORGE_PORT", 8080),
			Env:                envString("EXAMFORGE_ENV", "development"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir:   envString("DATABASE_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  envDuration("JWT_TOKEN_TTL", time.Hour),
		},
		ObjectStore: ObjectStoreConfig{
			Driver: envString("OBJECT_STORE_DRIVER", "minio"),
			Bucket: os.Getenv("OBJECT_STORE_BUCKET"),
			Minio: MinioConfig{
				Endpoint:  os.Getenv("MINIO_ENDPOINT"),
				AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
				SecretKey: os.Getenv("MINIO_SECRET_KEY"),
				UseSSL:    envBool("MINIO_USE_SSL", false),
				Region:    envString("MINIO_REGION", "us-east-1"),
			},
			GCS: GCSConfig{
				CredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
				EmulatorHost:    os.Getenv("GCS_EMULATOR_HOST"),
			},
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", "gemini"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 300*time.Second),
			Gemini: GeminiConfig{
				Model:   envString("GEMINI_MODEL", "gemini-2.5-flash"),
				BaseURL: os.Getenv("GEMINI_BASE_URL"),
			},
		},
		Worker: WorkerConfig{
			Queue:       envString("WORKER_QUEUE", "ai_exam"),
			Concurrency: envInt("WORKER_CONCURRENCY", 5),
			JobTimeout:  envDurationSecs("WORKER_JOB_TIMEOUT_SECS", 600*time.Second),
			Retention:   envDurationSecs("WORKER_RESULT_RETENTION_SECS", 86400*time.Second),
		},
		Exam: ExamConfig{
			PromptTemplatePath: os.Getenv("EXAM_PROMPT_TEMPLATE_PATH"),
			DefaultTemperature: envFloat("EXAM_DEFAULT_TEMPERATURE", 0.7),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if !validObjectStoreDrivers[c.ObjectStore.Driver] {
		return fmt.Errorf("OBJECT_STORE_DRIVER must be one of minio, gcs; got %q", c.ObjectStore.Driver)
	}
	if c.ObjectStore.Bucket == "" {
		return fmt.Errorf("OBJECT_STORE_BUCKET is required")
	}
	if c.ObjectStore.Driver == "minio" && c.ObjectStore.Minio.Endpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required when OBJECT_STORE_DRIVER is minio")
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be gemini; got %q", c.AI.Provider)
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.Worker.Concurrency)
	}
	if c.Worker.JobTimeout <= 0 {
		return fmt.Errorf("WORKER_JOB_TIMEOUT_SECS must be positive")
	}
	if c.Worker.Retention <= 0 {
		return fmt.Errorf("WORKER_RESULT_RETENTION_SECS must be positive")
	}

	if c.Exam.DefaultTemperature < 0 || c.Exam.DefaultTemperature > 2 {
		return fmt.Errorf("EXAM_DEFAULT_TEMPERATURE must be within [0, 2], got %v", c.Exam.DefaultTemperature)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
