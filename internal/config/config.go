package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StatBackendMemory = "memory"
	StatBackendRedis  = "redis"
)

var (
	ErrInvalidConcurrency = errors.New("MAX_CONCURRENT_JOBS должен быть больше нуля")
	ErrInvalidCompression = errors.New("COMPRESSION_LEVEL должен быть в диапазоне от -1 до 9")
	ErrInvalidStatBackend = errors.New("неизвестный STAT_BACKEND")
	ErrInvalidQueueSize   = errors.New("IPC_QUEUE_SIZE должен быть больше нуля")
)

type Config struct {
	HTTPPort         string        `envconfig:"HTTP_PORT" default:"8080"`
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"0s"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	UserHeader       string        `envconfig:"USER_HEADER" default:"X-Remote-User"`

	RootDir           string `envconfig:"ROOT_DIR" default:"./data"`
	ArchivesDir       string `envconfig:"ARCHIVES_DIR" default:"./archives"`
	MaxConcurrentJobs int64  `envconfig:"MAX_CONCURRENT_JOBS" default:"3"`
	CompressionLevel  int    `envconfig:"COMPRESSION_LEVEL" default:"5"`

	JobsDrainTimeout time.Duration `envconfig:"JOBS_DRAIN_TIMEOUT" default:"30s"`

	IPCSocket    string        `envconfig:"IPC_SOCKET"`
	IPCQueueSize int           `envconfig:"IPC_QUEUE_SIZE" default:"64"`
	IPCTimeout   time.Duration `envconfig:"IPC_TIMEOUT" default:"3s"`

	StatBackend   string `envconfig:"STAT_BACKEND" default:"memory"`
	StatNamespace string `envconfig:"STAT_NAMESPACE" default:"archive"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return nil, fmt.Errorf("не удалось загрузить .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConcurrency
	}
	if c.CompressionLevel < -1 || c.CompressionLevel > 9 {
		return fmt.Errorf("%w: %d", ErrInvalidCompression, c.CompressionLevel)
	}
	if c.IPCQueueSize <= 0 {
		return ErrInvalidQueueSize
	}
	switch c.StatBackend {
	case StatBackendMemory, StatBackendRedis:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatBackend, c.StatBackend)
	}
	return nil
}
