package config

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends for uploads and artifacts.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageMinio = "minio"
)

var (
	condenserOnce   sync.Once
	condenserConfig *CondenserConfig
)

// CondenserConfig drives the client side of the pipeline: where requests go
// and where artifacts are kept.
type CondenserConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Storage        string        `yaml:"storage"`
	ArtifactDir    string        `yaml:"artifact_dir"`
	LogLevel       string        `yaml:"log_level"`
	LogEncoding    string        `yaml:"log_encoding"`
}

func defaultCondenserConfig() *CondenserConfig {
	return &CondenserConfig{
		Endpoint:    "http://localhost:8080/process",
		Storage:     StorageLocal,
		ArtifactDir: "artifacts",
		LogLevel:    "info",
		LogEncoding: "console",
	}
}

// GetCondenserConfig loads the profile named by CONDENSER_CONFIG once. A
// broken profile is logged and the defaults plus environment are used.
func GetCondenserConfig() *CondenserConfig {
	condenserOnce.Do(func() {
		loadDotEnv()
		cfg, err := LoadCondenserConfig(os.Getenv("CONDENSER_CONFIG"))
		if err != nil {
			log.Printf("Warning: %v, using defaults", err)
			cfg = defaultCondenserConfig()
			cfg.applyEnv()
		}
		condenserConfig = cfg
	})
	return condenserConfig
}

// LoadCondenserConfig layers defaults, the optional YAML profile at path and
// the environment, in that order.
func LoadCondenserConfig(path string) (*CondenserConfig, error) {
	loadDotEnv()
	cfg := defaultCondenserConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *CondenserConfig) applyEnv() {
	c.Endpoint = getEnv("CONDENSER_ENDPOINT", c.Endpoint)
	c.RequestTimeout = getEnvAsDuration("CONDENSER_REQUEST_TIMEOUT", c.RequestTimeout)
	c.Storage = getEnv("CONDENSER_STORAGE", c.Storage)
	c.ArtifactDir = getEnv("CONDENSER_ARTIFACT_DIR", c.ArtifactDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogEncoding = getEnv("LOG_ENCODING", c.LogEncoding)
}

func (c *CondenserConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("condenser endpoint is required")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative: %v", c.RequestTimeout)
	}
	switch c.Storage {
	case StorageLocal, StorageS3, StorageMinio:
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage)
	}
	return nil
}
