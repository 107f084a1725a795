package config

import (
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`
	Dsn      string `env:"DSN" envDefault:"postgres://localhost:5432/civic_reports?sslmode=disable"`

	// JwtSecret signs the bearer tokens issued by the auth provider.
	JwtSecret   string `env:"JWT_SECRET"`
	JwtAudience string `env:"JWT_AUDIENCE" envDefault:"authenticated"`

	// RedisAddr left empty disables the feed cache.
	RedisAddr    string        `env:"REDIS_ADDR"`
	FeedCacheTTL time.Duration `env:"FEED_CACHE_TTL" envDefault:"15s"`

	StoreTimeout      time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"10m"`

	VoteRateLimit float64 `env:"VOTE_RATE_LIMIT" envDefault:"5"`
	VoteRateBurst int     `env:"VOTE_RATE_BURST" envDefault:"10"`

	MaxUploadSize       int64  `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`
	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	StadiaAPIKey string `env:"STADIA_API_KEY"`
}

// New loads .env when present and parses the environment into a Config.
func New() (*Config, error) {
	if loadErr := godotenv.Load(".env"); loadErr != nil && !errors.Is(loadErr, fs.ErrNotExist) {
		return nil, errors.Wrap(loadErr, "load .env")
	}

	var cfg Config
	if parseErr := env.Parse(&cfg); parseErr != nil {
		return nil, errors.Wrap(parseErr, "parse environment")
	}

	return &cfg, nil
}

func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}
