package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	Events  EventsConfig
	Metrics MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Storage.ensurePath()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field-level constraints that envconfig cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Driver == StorageDriverRedis && c.Redis.URL == "" && c.Redis.Address == "" {
		return fmt.Errorf("invalid config: %s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
	}
	if c.Storage.Driver == StorageDriverSQLite && c.Storage.DSN == "" {
		return fmt.Errorf("invalid config: %s is required for the sqlite storage driver", EnvStorageDSN)
	}
	return nil
}

var validate = validator.New()

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" validate:"omitempty,oneof=json console"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL     string        `envconfig:"STOREFRONT_API_BASE_URL" default:"http://localhost:3000/api" validate:"required,url"`
	Timeout     time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"15s"`
	RefreshPath string        `envconfig:"STOREFRONT_API_REFRESH_PATH" default:"/users/refresh-token"`
	UserAgent   string        `envconfig:"STOREFRONT_API_USER_AGENT" default:"storefront-cli"`
}

type StorageConfig struct {
	Driver     string `envconfig:"STOREFRONT_STORAGE_DRIVER" default:"badger" validate:"oneof=badger sqlite redis memory"`
	Path       string `envconfig:"STOREFRONT_STORAGE_PATH"`
	DSN        string `envconfig:"STOREFRONT_STORAGE_DSN"`
	Passphrase string `envconfig:"STOREFRONT_STORAGE_PASSPHRASE"`

	ArgonMemoryKB    int `envconfig:"STOREFRONT_STORAGE_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int `envconfig:"STOREFRONT_STORAGE_ARGON_TIME" default:"2"`
	ArgonParallelism int `envconfig:"STOREFRONT_STORAGE_ARGON_PARALLELISM" default:"1"`
}

// Sealed reports whether stored values are encrypted at rest.
func (s StorageConfig) Sealed() bool {
	return s.Passphrase != ""
}

func (s *StorageConfig) ensurePath() {
	if s.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		s.Path = filepath.Join(home, ".storefront", "data")
	}
	if s.Driver == StorageDriverSQLite && s.DSN == "" {
		s.DSN = filepath.Join(s.Path, "storefront.db")
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
	Namespace    string        `envconfig:"STOREFRONT_REDIS_NAMESPACE" default:"sf"`
}

type CatalogConfig struct {
	SearchDebounce time.Duration `envconfig:"STOREFRONT_CATALOG_SEARCH_DEBOUNCE" default:"500ms"`
	PageSize       int           `envconfig:"STOREFRONT_CATALOG_PAGE_SIZE" default:"12" validate:"min=1,max=100"`
}

type EventsConfig struct {
	NATSURL     string `envconfig:"STOREFRONT_EVENTS_NATS_URL"`
	NATSSubject string `envconfig:"STOREFRONT_EVENTS_NATS_SUBJECT" default:"storefront.session"`
}

// Enabled reports whether session events are bridged to NATS.
func (e EventsConfig) Enabled() bool {
	return strings.TrimSpace(e.NATSURL) != ""
}

type MetricsConfig struct {
	Addr string `envconfig:"STOREFRONT_METRICS_ADDR"`
}
