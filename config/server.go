package config

import (
	"fmt"
	"sync"
	"time"
)

var (
	serverOnce   sync.Once
	serverConfig *ServerConfig
)

// ServerConfig covers cmd/server and cmd/worker.
type ServerConfig struct {
	Port            string
	UpstreamAPIKey  string
	UpstreamBaseURL string
	UpstreamModel   string
	MaxConcurrent   int
	RequestTimeout  time.Duration
	ChunkSize       int

	RedisAddr         string
	RedisPassword     string
	WorkerConcurrency int
	MaxUploadSize     int64
	TaskRetention     time.Duration

	Storage    string
	StorageDir string

	RateLimit float64
	RateBurst int

	LogLevel    string
	LogEncoding string
	LogFile     string
}

func GetServerConfig() *ServerConfig {
	serverOnce.Do(func() {
		serverConfig = LoadServerConfig()
	})
	return serverConfig
}

// LoadServerConfig reads the environment without caching.
func LoadServerConfig() *ServerConfig {
	loadDotEnv()
	return &ServerConfig{
		Port:            getEnv("PORT", "8080"),
		UpstreamAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", "https://openrouter.ai/api/v1"),
		UpstreamModel:   getEnv("UPSTREAM_MODEL", "google/gemini-2.0-flash-001"),
		MaxConcurrent:   getEnvAsInt("MAX_CONCURRENT", 10),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 5*time.Minute),
		ChunkSize:       getEnvAsInt("CHUNK_SIZE", 900),

		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		WorkerConcurrency: getEnvAsInt("WORKER_CONCURRENCY", 4),
		MaxUploadSize:     int64(getEnvAsInt("MAX_UPLOAD_MB", 50)) << 20,
		TaskRetention:     getEnvAsDuration("TASK_RETENTION", 24*time.Hour),

		Storage:    getEnv("CONDENSER_STORAGE", StorageLocal),
		StorageDir: getEnv("CONDENSER_ARTIFACT_DIR", "artifacts"),

		RateLimit: getEnvAsFloat("RATE_LIMIT", 1),
		RateBurst: getEnvAsInt("RATE_BURST", 100),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "json"),
		LogFile:     getEnv("LOG_FILE", ""),
	}
}

func (c *ServerConfig) Validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT must be at least 1, got %d", c.MaxConcurrent)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("CHUNK_SIZE must be at least 1, got %d", c.ChunkSize)
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}
