package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey   string `envconfig:"API_KEY" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".serviceboard/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"serviceboard/"`
	S3Region string `envconfig:"S3_REGION" default:"eu-central-1"`
	// Redis settings (used when Type == "redis")
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"serviceboard"`
}

type VAPIDEnv struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDContact    string `envconfig:"VAPID_CONTACT" default:"mailto:office@example.org"`
}

type CatalogEnv struct {
	CatalogPath string `envconfig:"CATALOG_PATH"`
}

type Env struct {
	BaseEnv
	StorageEnv
	VAPIDEnv
	CatalogEnv
}

// ClientEnv configures the board client. The server address and key are
// usually overridden by command-line flags.
type ClientEnv struct {
	ServerURL       string        `envconfig:"SERVER_URL" default:"http://localhost:3100"`
	APIKey          string        `envconfig:"API_KEY"`
	Role            string        `envconfig:"ROLE"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	VisibleInterval time.Duration `envconfig:"VISIBLE_INTERVAL" default:"10s"`
	HiddenInterval  time.Duration `envconfig:"HIDDEN_INTERVAL" default:"30s"`
	QRUploadDelay   time.Duration `envconfig:"QR_UPLOAD_DELAY" default:"1500ms"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	RetryAttempts   int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	CatalogEnv
}

const namespace = "SERVICEBOARD"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func LoadClientEnv() (*ClientEnv, error) {
	var env ClientEnv
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	return parseLevel(e.LogLevel, slog.LevelDebug)
}

func (e *ClientEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	return parseLevel(e.LogLevel, slog.LevelInfo)
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return fallback
	}
	return level
}

func BaseEnvFromEnv(env *Env) *BaseEnv {
	return &env.BaseEnv
}

func StorageEnvFromEnv(env *Env) *StorageEnv {
	return &env.StorageEnv
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}
